// Package domain holds the append-only log of deleted invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"gorm.io/datatypes"
)

// Entry snapshots an invoice at deletion time. Restored is the only field that ever changes,
// and it changes once.
type Entry struct {
	ID                snowflake.ID                              `gorm:"primaryKey" json:"id"`
	InvoiceID         snowflake.ID                              `gorm:"not null;index" json:"invoice_id"`
	InvoiceNumber     string                                    `gorm:"type:text;not null;index" json:"invoice_number"`
	ClientName        string                                    `gorm:"type:text;not null;default:''" json:"client_name"`
	Status            invoicedomain.InvoiceStatus               `gorm:"type:text;not null" json:"status"`
	Total             decimal.Decimal                           `gorm:"type:numeric(14,2);not null" json:"total"`
	Snapshot          datatypes.JSONType[invoicedomain.Invoice] `gorm:"not null" json:"snapshot"`
	Reason            string                                    `gorm:"type:text;not null" json:"reason"`
	DeletedBy         string                                    `gorm:"type:text;not null" json:"deleted_by"`
	DeletedByName     string                                    `gorm:"type:text;not null;default:''" json:"deleted_by_name"`
	DeletedAt         time.Time                                 `gorm:"not null;index" json:"deleted_at"`
	Restored          bool                                      `gorm:"not null;default:false;index" json:"restored"`
	RestoredAt        *time.Time                                `json:"restored_at,omitempty"`
	RestoredInvoiceID *snowflake.ID                             `json:"restored_invoice_id,omitempty"`
}

func (Entry) TableName() string { return "invoice_delete_logs" }

type EntryCursor struct {
	ID        snowflake.ID
	DeletedAt time.Time
}

type ListFilter struct {
	Restored *bool
	Query    string
	Cursor   *EntryCursor
	Limit    int
}
