package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

const (
	ActionInvoiceCreated         = "invoice.created"
	ActionInvoiceUpdated         = "invoice.updated"
	ActionInvoiceSent            = "invoice.sent"
	ActionInvoicePaymentApplied  = "invoice.payment_applied"
	ActionInvoiceDisputed        = "invoice.disputed"
	ActionInvoiceDisputeResolved = "invoice.dispute_resolved"
	ActionInvoiceCancelled       = "invoice.cancelled"
	ActionInvoiceDeleted         = "invoice.deleted"
	ActionInvoiceRestored        = "invoice.restored"
)

const TargetTypeInvoice = "invoice"

// AuditLog is an append-only record of one successful mutation.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorType  string            `gorm:"type:text;not null" json:"actor_type"`
	ActorID    *string           `gorm:"type:text" json:"actor_id,omitempty"`
	ActorName  *string           `gorm:"type:text" json:"actor_name,omitempty"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null;index:idx_audit_logs_target" json:"target_type"`
	TargetID   *string           `gorm:"type:text;index:idx_audit_logs_target" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	IPAddress  *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
