package server

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	auditrepository "github.com/smallbiznis/invoicedesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/invoicedesk/internal/audit/service"
	"github.com/smallbiznis/invoicedesk/internal/authorization"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	deletelogrepository "github.com/smallbiznis/invoicedesk/internal/deletelog/repository"
	deletelogservice "github.com/smallbiznis/invoicedesk/internal/deletelog/service"
	"github.com/smallbiznis/invoicedesk/internal/invoice/numbering"
	invoicerepository "github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/invoicedesk/internal/invoice/service"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

type invoiceBody struct {
	ID                 string `json:"id"`
	InvoiceNumber      string `json:"invoice_number"`
	Status             string `json:"status"`
	Total              string `json:"total"`
	AmountPaid         string `json:"amount_paid"`
	OutstandingBalance string `json:"outstanding_balance"`
}

type testServer struct {
	engine *gin.Engine
	clock  *clock.FakeClock
}

func newTestServer(t *testing.T, opts ...func(*invoiceservice.ServiceParam)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.Run(conn, "sqlite"))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC))
	invoicing := config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig())

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: conn, Log: log, GenID: node, Clock: fakeClock, Repo: auditrepository.Provide(),
	})

	enforcer, err := authorization.NewEnforcer(nil)
	require.NoError(t, err)
	authzSvc := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})

	invoiceRepo := invoicerepository.Provide()
	param := invoiceservice.ServiceParam{
		DB:        conn,
		Log:       log,
		GenID:     node,
		Clock:     fakeClock,
		Config:    config.Config{Issuer: config.IssuerConfig{Name: "Northwind Supply"}},
		Invoicing: invoicing,
		Repo:      invoiceRepo,
		Numbers:   numbering.NewGenerator(numbering.NewDBSequencer(conn), invoicing),
		PDF:       pdf.New(),
		Email:     &email.NoOpProvider{},
		AuditSvc:  auditSvc,
	}
	for _, opt := range opts {
		opt(&param)
	}
	invoiceSvc := invoiceservice.NewService(param)
	deleteLogSvc := deletelogservice.NewService(deletelogservice.Params{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Clock:       fakeClock,
		Repo:        deletelogrepository.Provide(),
		InvoiceRepo: invoiceRepo,
		AuditSvc:    auditSvc,
	})

	srv := NewServer(ServerParams{
		Gin:          NewEngine(observability.Config{Service: observability.Resource{Environment: "test"}}, nil),
		Log:          log,
		AuthzSvc:     authzSvc,
		AuditSvc:     auditSvc,
		InvoiceSvc:   invoiceSvc,
		DeleteLogSvc: deleteLogSvc,
	})
	return &testServer{engine: srv.Engine(), clock: fakeClock}
}

func (ts *testServer) do(t *testing.T, method, path, role string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(HeaderActorID, "user-"+role)
		req.Header.Set(HeaderActorName, strings.ToUpper(role[:1])+role[1:])
		req.Header.Set(HeaderActorRole, role)
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeInvoice(t *testing.T, env envelope) invoiceBody {
	t.Helper()
	var inv invoiceBody
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	return inv
}

func draftBody() map[string]any {
	return map[string]any{
		"client": map[string]any{"name": "Acme Corp", "email": "ap@acme.test"},
		"items": []map[string]any{
			{"description": "Widget", "quantity": 2, "unit_price": "10"},
			{"description": "Gadget", "quantity": "1", "unit_price": 5},
		},
		"shipping_cost": 5,
	}
}

func (ts *testServer) createSent(t *testing.T) invoiceBody {
	t.Helper()
	body := draftBody()
	body["send"] = true
	rec, env := ts.do(t, http.MethodPost, "/api/invoices", authorization.RoleStaff, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inv := decodeInvoice(t, env)
	require.Equal(t, "sent", inv.Status)
	return inv
}

type failingEmail struct{}

func (failingEmail) Send(ctx context.Context, msg email.Message) error {
	return errors.New("smtp: 451 try later")
}

func (failingEmail) SendTemplate(ctx context.Context, msg email.Message, templateName string, data any) error {
	return errors.New("smtp: 451 try later")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec, _ := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActorRequired(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/invoices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Type)
}

func TestUnknownRoleIsForbidden(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/invoices", "auditor", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAndFetchInvoice(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/invoices", authorization.RoleStaff, draftBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeInvoice(t, env)
	assert.Equal(t, "INV-202603-001", created.InvoiceNumber)
	assert.Equal(t, "draft", created.Status)
	assert.Equal(t, "31.66", created.Total)

	rec, env = ts.do(t, http.MethodGet, "/api/invoices/"+created.ID, authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.InvoiceNumber, decodeInvoice(t, env).InvoiceNumber)

	rec, _ = ts.do(t, http.MethodPost, "/api/invoices", authorization.RoleViewer, draftBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestComputeTotalsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/invoices/totals", authorization.RoleViewer, map[string]any{
		"items":         []map[string]any{{"description": "Widget", "quantity": 2, "unit_price": 10}},
		"shipping_cost": "5",
		"tax_override":  "2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var totals struct {
		TaxMode string `json:"tax_mode"`
		Total   string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	assert.Equal(t, "manual", totals.TaxMode)
	assert.Equal(t, "27", totals.Total)
}

func TestValidationErrorShape(t *testing.T) {
	ts := newTestServer(t)

	body := draftBody()
	body["shipping_cost"] = -4
	rec, env := ts.do(t, http.MethodPost, "/api/invoices", authorization.RoleStaff, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Type)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "invalid_shipping_cost", env.Error.Errors[0].Code)

	body = draftBody()
	body["due_date"] = "10/03/2026"
	rec, env = ts.do(t, http.MethodPost, "/api/invoices", authorization.RoleStaff, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_date", env.Error.Errors[0].Code)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/invoices/42", authorization.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Type)

	rec, _ = ts.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndSendFailureReturnsSavedDraft(t *testing.T) {
	ts := newTestServer(t, func(p *invoiceservice.ServiceParam) {
		p.Email = failingEmail{}
	})

	body := draftBody()
	body["send"] = true
	rec, env := ts.do(t, http.MethodPost, "/api/invoices", authorization.RoleStaff, body)
	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	require.NotNil(t, env.Error)
	assert.Equal(t, "delivery_error", env.Error.Type)

	draft := decodeInvoice(t, env)
	require.NotEmpty(t, draft.ID)
	assert.Equal(t, "draft", draft.Status)
	assert.Equal(t, "INV-202603-001", draft.InvoiceNumber)

	rec, env = ts.do(t, http.MethodGet, "/api/invoices/"+draft.ID, authorization.RoleStaff, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "draft", decodeInvoice(t, env).Status)
}

func TestPaymentFlow(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createSent(t)
	path := "/api/invoices/" + inv.ID + "/payments"

	rec, _ := ts.do(t, http.MethodPost, path, authorization.RoleViewer, map[string]any{"amount": 10, "method": "cash"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := ts.do(t, http.MethodPost, path, authorization.RoleStaff, map[string]any{
		"amount": "10.00", "method": "ach", "date": "2026-03-10", "reference": "TRX-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	paid := decodeInvoice(t, env)
	assert.Equal(t, "partially_paid", paid.Status)
	assert.Equal(t, "21.66", paid.OutstandingBalance)

	rec, env = ts.do(t, http.MethodPost, path, authorization.RoleStaff, map[string]any{"amount": 0, "method": "cash"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payment_amount", env.Error.Errors[0].Code)

	rec, env = ts.do(t, http.MethodGet, "/api/payments?page_size=10", authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var payments []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &payments))
	assert.Len(t, payments, 1)
}

func TestInvalidTransitionIsConflict(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/invoices", authorization.RoleStaff, draftBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	draft := decodeInvoice(t, env)

	rec, env = ts.do(t, http.MethodPost, "/api/invoices/"+draft.ID+"/dispute", authorization.RoleStaff, map[string]any{"reason": "wrong amount"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_transition", env.Error.Message)
}

func TestDisputeResolveRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createSent(t)

	rec, env := ts.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/dispute", authorization.RoleStaff, map[string]any{"reason": "wrong amount"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "disputed", decodeInvoice(t, env).Status)

	rec, _ = ts.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/dispute/resolve", authorization.RoleStaff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/dispute/resolve", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sent", decodeInvoice(t, env).Status)
}

func TestDeleteAndRestore(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createSent(t)

	rec, _ := ts.do(t, http.MethodDelete, "/api/invoices/"+inv.ID, authorization.RoleStaff, map[string]any{"reason": "duplicate"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := ts.do(t, http.MethodDelete, "/api/invoices/"+inv.ID, authorization.RoleAdmin, map[string]any{"reason": "duplicate"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entry struct {
		ID            string `json:"id"`
		InvoiceNumber string `json:"invoice_number"`
		DeletedBy     string `json:"deleted_by"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, inv.InvoiceNumber, entry.InvoiceNumber)
	assert.Equal(t, "user-admin", entry.DeletedBy)

	rec, _ = ts.do(t, http.MethodGet, "/api/invoices/"+inv.ID, authorization.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/deleted-invoices?restored=false", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 1)

	rec, _ = ts.do(t, http.MethodPost, "/api/deleted-invoices/"+entry.ID+"/restore", authorization.RoleStaff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/deleted-invoices/"+entry.ID+"/restore", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	restored := decodeInvoice(t, env)
	assert.Equal(t, inv.InvoiceNumber, restored.InvoiceNumber)
	assert.Equal(t, "sent", restored.Status)

	rec, env = ts.do(t, http.MethodPost, "/api/deleted-invoices/"+entry.ID+"/restore", authorization.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_restored", env.Error.Message)
}

func TestAuditLogsAdminOnly(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createSent(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/audit-logs", authorization.RoleStaff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := ts.do(t, http.MethodGet, "/api/audit-logs?invoice_id="+inv.ID, authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var logs []struct {
		Action  string  `json:"action"`
		ActorID *string `json:"actor_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.NotEmpty(t, logs)
	for _, entry := range logs {
		require.NotNil(t, entry.ActorID)
		assert.Equal(t, "user-staff", *entry.ActorID)
	}

	rec, _ = ts.do(t, http.MethodGet, "/api/audit-logs?from=yesterday", authorization.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadInvoicePDF(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createSent(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf?download=true", authorization.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"INV-202603-001-acme-corp.pdf\"")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
