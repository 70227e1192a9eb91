package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
)

// LineItemInput is a raw form row. Quantity and UnitPrice are coerced, never rejected.
type LineItemInput struct {
	Description string
	Quantity    string
	UnitPrice   string
}

type UpsertInvoiceRequest struct {
	InvoiceDate  *time.Time
	DueDate      *time.Time
	Client       Client
	Notes        string
	Items        []LineItemInput
	ShippingCost string
	// TaxOverride switches the invoice to a manual tax amount.
	TaxOverride *string
	// ResetTax switches a manual invoice back to the configured rate.
	ResetTax bool
	// Send delivers the invoice right after it is saved.
	Send bool
}

type ComputeTotalsRequest struct {
	Items        []LineItemInput
	TaxOverride  *string
	ShippingCost string
	AmountPaid   string
}

type ComputeTotalsResponse struct {
	Items   []LineItem `json:"items"`
	TaxMode TaxMode    `json:"tax_mode"`
	TaxRate string     `json:"tax_rate"`
	Totals
}

type ApplyPaymentRequest struct {
	InvoiceID string
	Amount    string
	Method    string
	Date      *time.Time
	Reference *string
	Notes     *string
}

type DisputeRequest struct {
	InvoiceID string
	Reason    string
	Notes     string
}

type CancelRequest struct {
	InvoiceID string
	Reason    string
}

type ListInvoiceRequest struct {
	View  string
	Query string
}

type ListInvoiceResponse struct {
	View     View      `json:"view"`
	Invoices []Invoice `json:"invoices"`
}

type ViewCounts map[View]int

type PaymentHistoryRequest struct {
	Page     int
	PageSize int
}

type PaymentHistoryResponse struct {
	pagination.Page
	Payments []PaymentHistoryEntry `json:"payments"`
}

type Service interface {
	ComputeTotals(context.Context, ComputeTotalsRequest) (ComputeTotalsResponse, error)

	// Create and UpdateDraft return the saved draft alongside the error when the
	// requested send fails after the save.
	Create(context.Context, UpsertInvoiceRequest) (Invoice, error)
	UpdateDraft(ctx context.Context, id string, req UpsertInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)

	Send(ctx context.Context, id string) (Invoice, error)
	ApplyPayment(context.Context, ApplyPaymentRequest) (Invoice, error)
	MarkDisputed(context.Context, DisputeRequest) (Invoice, error)
	ResolveDispute(ctx context.Context, id string) (Invoice, error)
	Cancel(context.Context, CancelRequest) (Invoice, error)

	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	Search(ctx context.Context, query string) ([]Invoice, error)
	Counts(ctx context.Context, query string) (ViewCounts, error)
	PaymentHistory(context.Context, PaymentHistoryRequest) (PaymentHistoryResponse, error)

	RenderPDF(ctx context.Context, id string) (Document, error)
	RenderReceipt(ctx context.Context, id string, paymentID string) (Document, error)
}

// Document is a rendered file ready to download or attach.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NumberGenerator allocates invoice numbers.
type NumberGenerator interface {
	Next(ctx context.Context, at time.Time) (string, error)
}
