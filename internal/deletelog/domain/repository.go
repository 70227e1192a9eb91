package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	// FindByID returns nil when the entry does not exist.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Entry, error)
	// MarkRestored flips restored only while it is still false.
	MarkRestored(ctx context.Context, db *gorm.DB, id, restoredInvoiceID snowflake.ID, at time.Time) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Entry, error)
}
