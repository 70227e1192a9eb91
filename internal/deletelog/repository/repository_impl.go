package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/deletelog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Entry, error) {
	var entries []domain.Entry
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&entries).Error; err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *repo) MarkRestored(ctx context.Context, db *gorm.DB, id, restoredInvoiceID snowflake.ID, at time.Time) error {
	result := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id = ? AND restored = ?", id, false).
		Updates(map[string]any{
			"restored":            true,
			"restored_at":         at,
			"restored_invoice_id": restoredInvoiceID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAlreadyRestored
	}
	return nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	stmt := db.WithContext(ctx).Model(&domain.Entry{})

	if filter.Restored != nil {
		stmt = stmt.Where("restored = ?", *filter.Restored)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		stmt = stmt.Where("LOWER(invoice_number) LIKE ? OR LOWER(client_name) LIKE ?", like, like)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(deleted_at < ?) OR (deleted_at = ? AND id < ?)",
			filter.Cursor.DeletedAt,
			filter.Cursor.DeletedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("deleted_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
