package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Statuses []InvoiceStatus
	Query    string
}

type Repository interface {
	// Insert writes the invoice with its items and payments.
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	// FindByID returns nil when the invoice does not exist.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	// Update writes the invoice row only if it is still at expectedVersion, then bumps the version.
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice, expectedVersion int64) error
	ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []LineItem) error
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Invoice, error)
	ListPayments(ctx context.Context, db *gorm.DB, offset, limit int) ([]PaymentHistoryEntry, int64, error)
}
