package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/numbering"
	"github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockPDF struct {
	mock.Mock
}

func (m *mockPDF) RenderInvoice(ctx context.Context, inv invoicedomain.Invoice, issuer config.IssuerConfig) ([]byte, error) {
	args := m.Called(ctx, inv, issuer)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockPDF) RenderReceipt(ctx context.Context, inv invoicedomain.Invoice, payment invoicedomain.Payment, issuer config.IssuerConfig) ([]byte, error) {
	args := m.Called(ctx, inv, payment, issuer)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockEmail) SendTemplate(ctx context.Context, msg email.Message, templateName string, data any) error {
	return m.Called(ctx, msg, templateName, data).Error(0)
}

type mockAuditSvc struct {
	mock.Mock
}

func (m *mockAuditSvc) AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	return m.Called(ctx, action, targetType, targetID, metadata).Error(0)
}

func (m *mockAuditSvc) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(auditdomain.ListAuditLogResponse), args.Error(1)
}

type fixture struct {
	svc   invoicedomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	pdf   *mockPDF
	email *mockEmail
	audit *mockAuditSvc
}

func setup(t *testing.T, opts ...func(*ServiceParam)) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&invoicedomain.Payment{},
		&numbering.Sequence{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		db:    db,
		clock: clock.NewFakeClock(time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)),
		pdf:   new(mockPDF),
		email: new(mockEmail),
		audit: new(mockAuditSvc),
	}
	f.audit.On("AuditLog", mock.Anything, mock.Anything, auditdomain.TargetTypeInvoice, mock.Anything, mock.Anything).Return(nil).Maybe()

	invoicing := config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig())
	param := ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     f.clock,
		Config:    config.Config{Issuer: config.IssuerConfig{Name: "Northwind Supply", Email: "billing@northwind.test"}},
		Invoicing: invoicing,
		Repo:      repository.Provide(),
		Numbers:   numbering.NewGenerator(numbering.NewDBSequencer(db), invoicing),
		PDF:       f.pdf,
		Email:     f.email,
		AuditSvc:  f.audit,
	}
	for _, opt := range opts {
		opt(&param)
	}
	f.svc = NewService(param)
	return f
}

func draftRequest() invoicedomain.UpsertInvoiceRequest {
	return invoicedomain.UpsertInvoiceRequest{
		Client: invoicedomain.Client{Name: " Acme Corp ", Email: "ap@acme.test"},
		Items: []invoicedomain.LineItemInput{
			{Description: "Widget", Quantity: "2", UnitPrice: "10"},
			{Description: "Gadget", Quantity: "1", UnitPrice: "5"},
		},
		ShippingCost: "5",
	}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func (f *fixture) sentInvoice(t *testing.T) invoicedomain.Invoice {
	t.Helper()
	f.pdf.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.3"), nil).Maybe()
	f.email.On("SendTemplate", mock.Anything, mock.Anything, "invoice_sent", mock.Anything).Return(nil).Maybe()

	req := draftRequest()
	req.Send = true
	inv, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
	return inv
}

func TestComputeTotals(t *testing.T) {
	f := setup(t)

	resp, err := f.svc.ComputeTotals(context.Background(), invoicedomain.ComputeTotalsRequest{
		Items: []invoicedomain.LineItemInput{
			{Description: "Widget", Quantity: "2", UnitPrice: "10"},
			{Description: "Gadget", Quantity: "abc", UnitPrice: "5"},
		},
		ShippingCost: "5",
		AmountPaid:   "10",
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.TaxModeAuto, resp.TaxMode)
	assertMoney(t, "20", resp.Subtotal)
	assertMoney(t, "1.33", resp.SalesTax)
	assertMoney(t, "26.33", resp.Total)
	assertMoney(t, "16.33", resp.OutstandingBalance)
}

func TestCreateDraft(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)

	assert.Equal(t, "INV-202603-001", inv.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "Acme Corp", inv.Client.Name)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), inv.InvoiceDate)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), inv.DueDate)
	assertMoney(t, "31.66", inv.Total)

	second, err := f.svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.Equal(t, "INV-202603-002", second.InvoiceNumber)

	f.audit.AssertCalled(t, "AuditLog", mock.Anything, auditdomain.ActionInvoiceCreated, auditdomain.TargetTypeInvoice, mock.Anything, mock.Anything)
	f.email.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := draftRequest()
	req.ShippingCost = "-1"
	_, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidShippingCost)

	req = draftRequest()
	negative := "-3"
	req.TaxOverride = &negative
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTaxAmount)

	req = draftRequest()
	invoiceDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dueDate := invoiceDate.AddDate(0, 0, -1)
	req.InvoiceDate, req.DueDate = &invoiceDate, &dueDate
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidDueDate)
}

func TestUpdateDraft_ManualTaxStaysUntilReset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, draftRequest())
	require.NoError(t, err)

	req := draftRequest()
	override := "2.00"
	req.TaxOverride = &override
	inv, err = f.svc.UpdateDraft(ctx, inv.ID.String(), req)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.TaxModeManual, inv.TaxMode)
	assertMoney(t, "32", inv.Total)
	assert.Equal(t, int64(2), inv.Version)

	req = draftRequest()
	req.Items = append(req.Items, invoicedomain.LineItemInput{Description: "Bolt", Quantity: "10", UnitPrice: "1"})
	inv, err = f.svc.UpdateDraft(ctx, inv.ID.String(), req)
	require.NoError(t, err)
	assertMoney(t, "2", inv.SalesTax)
	assert.Len(t, inv.Items, 3)

	req.ResetTax = true
	inv, err = f.svc.UpdateDraft(ctx, inv.ID.String(), req)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.TaxModeAuto, inv.TaxMode)
	assertMoney(t, "2.32", inv.SalesTax)

	stored, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, stored.Items, 3)
	assert.Equal(t, int64(4), stored.Version)
}

func TestUpdateDraft_RejectsSentInvoice(t *testing.T) {
	f := setup(t)
	inv := f.sentInvoice(t)

	_, err := f.svc.UpdateDraft(context.Background(), inv.ID.String(), draftRequest())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotEditable)
}

func TestSend(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, draftRequest())
	require.NoError(t, err)

	f.pdf.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.3"), nil).Once()
	f.email.On("SendTemplate", mock.Anything, mock.MatchedBy(func(msg email.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == "ap@acme.test" &&
			len(msg.Attachments) == 1 &&
			msg.Attachments[0].Filename == "INV-202603-001-acme-corp.pdf" &&
			msg.Headers["X-Correlation-ID"] != ""
	}), "invoice_sent", mock.Anything).Return(nil).Once()

	sent, err := f.svc.Send(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	f.pdf.AssertExpectations(t)
	f.email.AssertExpectations(t)

	_, err = f.svc.Send(ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)
}

func TestSend_DeliveryFailureKeepsDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, draftRequest())
	require.NoError(t, err)

	f.pdf.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.3"), nil)
	f.email.On("SendTemplate", mock.Anything, mock.Anything, "invoice_sent", mock.Anything).Return(errors.New("smtp: 451 try later"))

	_, err = f.svc.Send(ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrDeliveryFailed)

	stored, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, stored.Status)
	assert.Nil(t, stored.SentAt)
}

func TestCreateAndSend_DeliveryFailureReturnsSavedDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.pdf.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.3"), nil)
	f.email.On("SendTemplate", mock.Anything, mock.Anything, "invoice_sent", mock.Anything).Return(errors.New("smtp: 451 try later")).Once()
	f.email.On("SendTemplate", mock.Anything, mock.Anything, "invoice_sent", mock.Anything).Return(nil).Once()

	req := draftRequest()
	req.Send = true
	draft, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrDeliveryFailed)
	require.NotZero(t, draft.ID)
	assert.Equal(t, "INV-202603-001", draft.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, draft.Status)

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	sent, err := f.svc.Send(ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, sent.Status)

	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateDraftAndSend_DeliveryFailureReturnsSavedDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, draftRequest())
	require.NoError(t, err)

	f.pdf.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.3"), nil)
	f.email.On("SendTemplate", mock.Anything, mock.Anything, "invoice_sent", mock.Anything).Return(errors.New("smtp: 451 try later"))

	req := draftRequest()
	req.Notes = "Net 2"
	req.Send = true
	draft, err := f.svc.UpdateDraft(ctx, inv.ID.String(), req)
	assert.ErrorIs(t, err, invoicedomain.ErrDeliveryFailed)
	assert.Equal(t, inv.ID, draft.ID)
	assert.Equal(t, "Net 2", draft.Notes)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, draft.Status)
}

func TestSend_RenderFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, draftRequest())
	require.NoError(t, err)

	f.pdf.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("font missing"))

	_, err = f.svc.Send(ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrRenderFailed)
	f.email.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_MissingClientEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := draftRequest()
	req.Client.Email = "  "
	inv, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrMissingClientEmail)
	f.pdf.AssertNotCalled(t, "RenderInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyPayment_PartialThenFull(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv := f.sentInvoice(t)

	ref := "ZL-778"
	inv, err := f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    "10",
		Method:    "zelle",
		Reference: &ref,
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPartiallyPaid, inv.Status)
	assertMoney(t, "21.66", inv.OutstandingBalance)
	require.Len(t, inv.Payments, 1)
	assert.Equal(t, invoicedomain.PaymentMethodZelle, inv.Payments[0].Method)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), inv.Payments[0].Date)

	inv, err = f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    "21.66",
		Method:    "ACH",
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, inv.Status)
	assertMoney(t, "31.66", inv.AmountPaid)
	assertMoney(t, "0", inv.OutstandingBalance)

	stored, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, stored.Payments, 2)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, stored.Status)

	f.audit.AssertCalled(t, "AuditLog", mock.Anything, auditdomain.ActionInvoicePaymentApplied, auditdomain.TargetTypeInvoice, mock.Anything, mock.Anything)
}

func TestApplyPayment_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, draftRequest())
	require.NoError(t, err)

	_, err = f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{InvoiceID: draft.ID.String(), Amount: "0", Method: "Cash"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPaymentAmount)

	_, err = f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{InvoiceID: draft.ID.String(), Amount: "5", Method: "Bitcoin"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPaymentMethod)

	_, err = f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{InvoiceID: draft.ID.String(), Amount: "5", Method: "Cash"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	_, err = f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{InvoiceID: "404", Amount: "5", Method: "Cash"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestDisputeResolveCancel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv := f.sentInvoice(t)

	_, err := f.svc.MarkDisputed(ctx, invoicedomain.DisputeRequest{InvoiceID: inv.ID.String(), Reason: " "})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidDisputeReason)

	inv, err = f.svc.MarkDisputed(ctx, invoicedomain.DisputeRequest{InvoiceID: inv.ID.String(), Reason: "Wrong quantity", Notes: "Only one widget arrived"})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusDisputed, inv.Status)
	assert.Equal(t, invoicedomain.DisputeStatusOpen, inv.Dispute.Status)

	_, err = f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "5", Method: "Cash"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	inv, err = f.svc.ResolveDispute(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
	assert.Equal(t, invoicedomain.DisputeStatusResolved, inv.Dispute.Status)

	inv, err = f.svc.Cancel(ctx, invoicedomain.CancelRequest{InvoiceID: inv.ID.String(), Reason: "Client closed"})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCancelled, inv.Status)

	_, err = f.svc.Cancel(ctx, invoicedomain.CancelRequest{InvoiceID: inv.ID.String(), Reason: "again"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	f.audit.AssertCalled(t, "AuditLog", mock.Anything, auditdomain.ActionInvoiceCancelled, auditdomain.TargetTypeInvoice, mock.Anything, mock.Anything)
}

func TestStaleWriteIsRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv := f.sentInvoice(t)

	stale, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)

	_, err = f.svc.MarkDisputed(ctx, invoicedomain.DisputeRequest{InvoiceID: inv.ID.String(), Reason: "Late"})
	require.NoError(t, err)

	require.NoError(t, stale.Cancel("Duplicate", f.clock.Now()))
	err = repository.Provide().Update(ctx, f.db, &stale, stale.Version)
	assert.ErrorIs(t, err, invoicedomain.ErrConcurrentModification)

	stored, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusDisputed, stored.Status)
}

func TestListCountsAndSearch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, draftRequest())
	require.NoError(t, err)
	sent := f.sentInvoice(t)

	other := draftRequest()
	other.Client = invoicedomain.Client{Name: "Globex", Email: "pay@globex.test"}
	_, err = f.svc.Create(ctx, other)
	require.NoError(t, err)

	resp, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{View: "draft"})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 2)

	resp, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{View: "all", Query: "GLOBEX"})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, "Globex", resp.Invoices[0].Client.Name)

	_, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{View: "archived"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidView)

	f.clock.Advance(72 * time.Hour)

	resp, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{View: "overdue"})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, sent.ID, resp.Invoices[0].ID)

	resp, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{View: "sent"})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)

	counts, err := f.svc.Counts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, counts[invoicedomain.ViewAll])
	assert.Equal(t, 2, counts[invoicedomain.ViewDraft])
	assert.Equal(t, 1, counts[invoicedomain.ViewOverdue])
	assert.Equal(t, 0, counts[invoicedomain.ViewSent])

	found, err := f.svc.Search(ctx, "inv-202603-00")
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestPaymentHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv := f.sentInvoice(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "1", Method: "Cash"})
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	resp, err := f.svc.PaymentHistory(ctx, invoicedomain.PaymentHistoryRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Payments, 2)
	assert.Equal(t, "INV-202603-001", resp.Payments[0].InvoiceNumber)
	assert.Equal(t, "Acme Corp", resp.Payments[0].ClientName)
	assert.True(t, resp.Payments[0].Date.After(resp.Payments[1].Date))

	resp, err = f.svc.PaymentHistory(ctx, invoicedomain.PaymentHistoryRequest{Page: 1, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.PageSize)
	assert.Len(t, resp.Payments, 3)
}

func TestRenderDocuments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv := f.sentInvoice(t)

	inv, err := f.svc.ApplyPayment(ctx, invoicedomain.ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "31.66", Method: "Wire"})
	require.NoError(t, err)

	doc, err := f.svc.RenderPDF(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "INV-202603-001-acme-corp.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)

	f.pdf.On("RenderReceipt", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.3"), nil).Once()
	receipt, err := f.svc.RenderReceipt(ctx, inv.ID.String(), inv.Payments[0].ID.String())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.Filename, "receipt-inv-202603-001-"))

	_, err = f.svc.RenderReceipt(ctx, inv.ID.String(), "12345")
	assert.ErrorIs(t, err, invoicedomain.ErrPaymentNotFound)
}
