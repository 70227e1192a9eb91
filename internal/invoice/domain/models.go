// Package domain contains the invoice aggregate, its pure calculations and lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the persisted lifecycle state. Overdue is never stored.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusDisputed      InvoiceStatus = "disputed"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

var invoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPartiallyPaid,
	InvoiceStatusPaid,
	InvoiceStatusDisputed,
	InvoiceStatusCancelled,
}

func (s InvoiceStatus) Valid() bool {
	for _, status := range invoiceStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
)

// Client holds the bill-to contact. Only name and email are checked, and only at send time.
type Client struct {
	Name         string `gorm:"type:text;not null;default:''" json:"name"`
	Email        string `gorm:"type:text;not null;default:''" json:"email"`
	Phone        string `gorm:"type:text;not null;default:''" json:"phone"`
	AddressLine1 string `gorm:"type:text;not null;default:''" json:"address_line1"`
	AddressLine2 string `gorm:"type:text;not null;default:''" json:"address_line2"`
	City         string `gorm:"type:text;not null;default:''" json:"city"`
	State        string `gorm:"type:text;not null;default:''" json:"state"`
	PostalCode   string `gorm:"type:text;not null;default:''" json:"postal_code"`
	Country      string `gorm:"type:text;not null;default:''" json:"country"`
}

// Dispute is empty (Status == "") until the invoice is first disputed.
type Dispute struct {
	Reason     string        `gorm:"type:text" json:"reason"`
	Notes      string        `gorm:"type:text" json:"notes"`
	Status     DisputeStatus `gorm:"type:text" json:"status"`
	OpenedAt   *time.Time    `json:"opened_at,omitempty"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

func (d Dispute) Present() bool { return d.Status != "" }

type Cancellation struct {
	Reason      string     `gorm:"type:text" json:"reason"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (c Cancellation) Present() bool { return c.CancelledAt != nil }

// Invoice is the aggregate root. It owns its line items and payments.
type Invoice struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceNumber      string          `gorm:"type:text;not null;index" json:"invoice_number"`
	Status             InvoiceStatus   `gorm:"type:text;not null;index" json:"status"`
	InvoiceDate        time.Time       `gorm:"not null" json:"invoice_date"`
	DueDate            time.Time       `gorm:"not null;index" json:"due_date"`
	Client             Client          `gorm:"embedded;embeddedPrefix:client_" json:"client"`
	Notes              string          `gorm:"type:text;not null;default:''" json:"notes"`
	Items              []LineItem      `gorm:"foreignKey:InvoiceID" json:"items"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(16,4);not null" json:"subtotal"`
	SalesTax           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"sales_tax"`
	ShippingCost       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"shipping_cost"`
	Total              decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	AmountPaid         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount_paid"`
	OutstandingBalance decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"outstanding_balance"`
	TaxMode            TaxMode         `gorm:"type:text;not null" json:"tax_mode"`
	TaxRate            decimal.Decimal `gorm:"type:numeric(8,5);not null" json:"tax_rate"`
	Payments           []Payment       `gorm:"foreignKey:InvoiceID" json:"payments"`
	Dispute            Dispute         `gorm:"embedded;embeddedPrefix:dispute_" json:"dispute"`
	Cancellation       Cancellation    `gorm:"embedded;embeddedPrefix:cancel_" json:"cancellation"`
	SentAt             *time.Time      `json:"sent_at,omitempty"`
	Version            int64           `gorm:"not null" json:"version"`
	CreatedAt          time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// LineItem is one billable entry. Amount is always Quantity × UnitPrice.
type LineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:numeric(16,4);not null" json:"amount"`
}

func (LineItem) TableName() string { return "invoice_items" }

type PaymentMethod string

const (
	PaymentMethodZelle PaymentMethod = "Zelle"
	PaymentMethodACH   PaymentMethod = "ACH"
	PaymentMethodWire  PaymentMethod = "Wire"
	PaymentMethodCash  PaymentMethod = "Cash"
	PaymentMethodOther PaymentMethod = "Other"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodZelle,
	PaymentMethodACH,
	PaymentMethodWire,
	PaymentMethodCash,
	PaymentMethodOther,
}

func (m PaymentMethod) Valid() bool {
	for _, method := range paymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Payment is an immutable receipt of funds against an invoice.
type Payment struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Date      time.Time       `gorm:"column:paid_at;not null;index" json:"date"`
	Method    PaymentMethod   `gorm:"type:text;not null" json:"method"`
	Reference *string         `gorm:"type:text" json:"reference,omitempty"`
	Notes     *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (Payment) TableName() string { return "invoice_payments" }

// PaymentHistoryEntry is a payment flattened with the invoice it settles.
type PaymentHistoryEntry struct {
	Payment       `gorm:"embedded"`
	InvoiceNumber string `json:"invoice_number"`
	ClientName    string `json:"client_name"`
}
