package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	"github.com/smallbiznis/invoicedesk/internal/auditcontext"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	deletelogdomain "github.com/smallbiznis/invoicedesk/internal/deletelog/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100

	systemActor = "system"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        deletelogdomain.Repository
	InvoiceRepo invoicedomain.Repository
	AuditSvc    auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        deletelogdomain.Repository
	invoiceRepo invoicedomain.Repository
	auditSvc    auditdomain.Service
}

func NewService(p Params) deletelogdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("deletelog.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		auditSvc:    p.AuditSvc,
	}
}

// Delete snapshots the invoice into the log and removes it with its items and payments.
func (s *Service) Delete(ctx context.Context, req deletelogdomain.DeleteRequest) (deletelogdomain.Entry, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return deletelogdomain.Entry{}, invoicedomain.ErrInvalidID
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return deletelogdomain.Entry{}, deletelogdomain.ErrInvalidReason
	}

	deletedBy, deletedByName := systemActor, ""
	if actor, ok := auditcontext.ActorFromContext(ctx); ok {
		deletedBy, deletedByName = actor.ID, actor.Name
	}

	var entry deletelogdomain.Entry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindByID(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		entry = deletelogdomain.Entry{
			ID:            s.genID.Generate(),
			InvoiceID:     invoice.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			ClientName:    invoice.Client.Name,
			Status:        invoice.Status,
			Total:         invoice.Total,
			Snapshot:      datatypes.NewJSONType(*invoice),
			Reason:        reason,
			DeletedBy:     deletedBy,
			DeletedByName: deletedByName,
			DeletedAt:     s.clock.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, tx, &entry); err != nil {
			return err
		}
		return s.invoiceRepo.Delete(ctx, tx, invoice.ID)
	})
	if err != nil {
		return deletelogdomain.Entry{}, err
	}

	s.audit(ctx, auditdomain.ActionInvoiceDeleted, entry.InvoiceID, map[string]any{
		"invoice_number": entry.InvoiceNumber,
		"status":         string(entry.Status),
		"reason":         entry.Reason,
		"delete_log_id":  entry.ID.String(),
	})

	return entry, nil
}

// Restore re-creates the snapshot under fresh ids. The number and status are kept as they were.
func (s *Service) Restore(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	entryID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var (
		restored invoicedomain.Invoice
		entry    *deletelogdomain.Entry
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err = s.repo.FindByID(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return deletelogdomain.ErrEntryNotFound
		}
		if entry.Restored {
			return deletelogdomain.ErrAlreadyRestored
		}

		now := s.clock.Now().UTC()
		restored = s.rematerialize(entry.Snapshot.Data(), now)
		if err := s.invoiceRepo.Insert(ctx, tx, &restored); err != nil {
			return err
		}
		return s.repo.MarkRestored(ctx, tx, entry.ID, restored.ID, now)
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.audit(ctx, auditdomain.ActionInvoiceRestored, restored.ID, map[string]any{
		"invoice_number":      restored.InvoiceNumber,
		"status":              string(restored.Status),
		"delete_log_id":       entry.ID.String(),
		"original_invoice_id": entry.InvoiceID.String(),
	})

	return restored, nil
}

func (s *Service) rematerialize(snapshot invoicedomain.Invoice, now time.Time) invoicedomain.Invoice {
	invoice := snapshot
	invoice.ID = s.genID.Generate()
	invoice.Version = 1
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	invoice.Items = make([]invoicedomain.LineItem, len(snapshot.Items))
	for i, item := range snapshot.Items {
		item.ID = s.genID.Generate()
		item.InvoiceID = invoice.ID
		invoice.Items[i] = item
	}
	invoice.Payments = make([]invoicedomain.Payment, len(snapshot.Payments))
	for i, payment := range snapshot.Payments {
		payment.ID = s.genID.Generate()
		payment.InvoiceID = invoice.ID
		invoice.Payments[i] = payment
	}
	return invoice
}

func (s *Service) Get(ctx context.Context, id string) (deletelogdomain.Entry, error) {
	entryID, err := parseID(id)
	if err != nil {
		return deletelogdomain.Entry{}, err
	}
	entry, err := s.repo.FindByID(ctx, s.db, entryID)
	if err != nil {
		return deletelogdomain.Entry{}, err
	}
	if entry == nil {
		return deletelogdomain.Entry{}, deletelogdomain.ErrEntryNotFound
	}
	return *entry, nil
}

func (s *Service) List(ctx context.Context, req deletelogdomain.ListRequest) (deletelogdomain.ListResponse, error) {
	var cursor *deletelogdomain.EntryCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return deletelogdomain.ListResponse{}, deletelogdomain.ErrInvalidPageToken
		}
		deletedAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return deletelogdomain.ListResponse{}, deletelogdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return deletelogdomain.ListResponse{}, deletelogdomain.ErrInvalidPageToken
		}
		cursor = &deletelogdomain.EntryCursor{ID: id, DeletedAt: deletedAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, err := s.repo.List(ctx, s.db, deletelogdomain.ListFilter{
		Restored: req.Restored,
		Query:    req.Query,
		Cursor:   cursor,
		Limit:    pageSize,
	})
	if err != nil {
		return deletelogdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *deletelogdomain.Entry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.DeletedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]deletelogdomain.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, *item)
	}
	return deletelogdomain.ListResponse{PageInfo: *pageInfo, Entries: entries}, nil
}

func (s *Service) audit(ctx context.Context, action string, invoiceID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := invoiceID.String()
	if err := s.auditSvc.AuditLog(ctx, action, auditdomain.TargetTypeInvoice, &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.String("invoice_id", targetID), zap.Error(err))
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, deletelogdomain.ErrInvalidID
	}
	return id, nil
}
