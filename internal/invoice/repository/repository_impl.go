package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
			return err
		}
		if len(invoice.Items) > 0 {
			for i := range invoice.Items {
				invoice.Items[i].InvoiceID = invoice.ID
			}
			if err := tx.Create(&invoice.Items).Error; err != nil {
				return err
			}
		}
		if len(invoice.Payments) > 0 {
			for i := range invoice.Payments {
				invoice.Payments[i].InvoiceID = invoice.ID
			}
			if err := tx.Create(&invoice.Payments).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc, id asc")
		}).
		Preload("Payments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("paid_at asc, created_at asc, id asc")
		}).
		Where("id = ?", id).
		Limit(1).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice, expectedVersion int64) error {
	next := expectedVersion + 1
	values := invoiceColumns(invoice)
	values["version"] = next

	result := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ? AND version = ?", invoice.ID, expectedVersion).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	invoice.Version = next
	return nil
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []domain.LineItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoiceID).Delete(&domain.LineItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].InvoiceID = invoiceID
		}
		return tx.Create(&items).Error
	})
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&domain.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&domain.LineItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.Invoice{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrInvoiceNotFound
		}
		return nil
	})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Invoice, error) {
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if len(filter.Statuses) > 0 {
		stmt = stmt.Where("status IN ?", filter.Statuses)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		pattern := "%" + q + "%"
		stmt = stmt.Where(
			"LOWER(invoice_number) LIKE ? OR LOWER(client_name) LIKE ? OR LOWER(client_email) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var invoices []domain.Invoice
	if err := stmt.Order("created_at desc, id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.PaymentHistoryEntry, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&domain.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []domain.PaymentHistoryEntry
	err := db.WithContext(ctx).
		Table("invoice_payments AS p").
		Select("p.id, p.invoice_id, p.amount, p.paid_at, p.method, p.reference, p.notes, p.created_at, i.invoice_number, i.client_name").
		Joins("JOIN invoices i ON i.id = p.invoice_id").
		Order("p.paid_at desc, p.created_at desc, p.id desc").
		Offset(offset).
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func invoiceColumns(inv *domain.Invoice) map[string]any {
	return map[string]any{
		"invoice_number":       inv.InvoiceNumber,
		"status":               inv.Status,
		"invoice_date":         inv.InvoiceDate,
		"due_date":             inv.DueDate,
		"client_name":          inv.Client.Name,
		"client_email":         inv.Client.Email,
		"client_phone":         inv.Client.Phone,
		"client_address_line1": inv.Client.AddressLine1,
		"client_address_line2": inv.Client.AddressLine2,
		"client_city":          inv.Client.City,
		"client_state":         inv.Client.State,
		"client_postal_code":   inv.Client.PostalCode,
		"client_country":       inv.Client.Country,
		"notes":                inv.Notes,
		"subtotal":             inv.Subtotal,
		"sales_tax":            inv.SalesTax,
		"shipping_cost":        inv.ShippingCost,
		"total":                inv.Total,
		"amount_paid":          inv.AmountPaid,
		"outstanding_balance":  inv.OutstandingBalance,
		"tax_mode":             inv.TaxMode,
		"tax_rate":             inv.TaxRate,
		"dispute_reason":       inv.Dispute.Reason,
		"dispute_notes":        inv.Dispute.Notes,
		"dispute_status":       inv.Dispute.Status,
		"dispute_opened_at":    inv.Dispute.OpenedAt,
		"dispute_resolved_at":  inv.Dispute.ResolvedAt,
		"cancel_reason":        inv.Cancellation.Reason,
		"cancel_cancelled_at":  inv.Cancellation.CancelledAt,
		"sent_at":              inv.SentAt,
		"updated_at":           inv.UpdatedAt,
	}
}
