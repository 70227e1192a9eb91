package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/smallbiznis/invoicedesk/internal/redislock"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("invoicedesk/invoice")

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    config.Config
	Invoicing *config.InvoicingConfigHolder
	Repo      invoicedomain.Repository
	Numbers   invoicedomain.NumberGenerator
	PDF       pdf.Provider
	Email     email.Provider
	Locker    *redislock.Locker   `optional:"true"`
	AuditSvc  auditdomain.Service `optional:"true"`
	Metrics   *metrics.Metrics    `optional:"true"`
}

// sendLocker is satisfied by *redislock.Locker. A nil *redislock.Locker grants every lease.
type sendLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	issuer    config.IssuerConfig
	invoicing *config.InvoicingConfigHolder

	repo     invoicedomain.Repository
	numbers  invoicedomain.NumberGenerator
	pdf      pdf.Provider
	email    email.Provider
	locker   sendLocker
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,

		issuer:    p.Config.Issuer,
		invoicing: p.Invoicing,

		repo:     p.Repo,
		numbers:  p.Numbers,
		pdf:      p.PDF,
		email:    p.Email,
		locker:   p.Locker,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *Service) ComputeTotals(ctx context.Context, req invoicedomain.ComputeTotalsRequest) (invoicedomain.ComputeTotalsResponse, error) {
	policy := invoicedomain.AutoTax(s.invoicingConfig().Rate())
	if req.TaxOverride != nil {
		policy = invoicedomain.ManualTax(invoicedomain.ParseAmount(*req.TaxOverride))
	}

	items, totals := invoicedomain.ComputeTotals(
		s.buildItems(req.Items, false),
		policy,
		invoicedomain.ParseAmount(req.ShippingCost),
		invoicedomain.ParseAmount(req.AmountPaid),
	)

	return invoicedomain.ComputeTotalsResponse{
		Items:   items,
		TaxMode: policy.Mode,
		TaxRate: policy.Rate.String(),
		Totals:  totals,
	}, nil
}

func (s *Service) Create(ctx context.Context, req invoicedomain.UpsertInvoiceRequest) (invoicedomain.Invoice, error) {
	shipping, taxOverride, err := validateUpsert(req)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now().UTC()
	cfg := s.invoicingConfig()

	invoiceDate := clock.Today(s.clock)
	if req.InvoiceDate != nil {
		invoiceDate = clock.DateOf(*req.InvoiceDate)
	}
	dueDate := invoiceDate.AddDate(0, 0, cfg.DueDays)
	if req.DueDate != nil {
		dueDate = clock.DateOf(*req.DueDate)
	}
	if dueDate.Before(invoiceDate) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidDueDate
	}

	number, err := s.numbers.Next(ctx, now)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice := invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		InvoiceNumber: number,
		Status:        invoicedomain.InvoiceStatusDraft,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Client:        normalizeClient(req.Client),
		Notes:         strings.TrimSpace(req.Notes),
		Items:         s.buildItems(req.Items, true),
		ShippingCost:  shipping,
		Payments:      []invoicedomain.Payment{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if taxOverride != nil {
		invoice.SetTaxPolicy(invoicedomain.ManualTax(*taxOverride))
	} else {
		invoice.SetTaxPolicy(invoicedomain.AutoTax(cfg.Rate()))
	}
	invoice.Recalculate()

	if err := s.repo.Insert(ctx, s.db, &invoice); err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.audit(ctx, auditdomain.ActionInvoiceCreated, &invoice, nil)

	if req.Send {
		return s.sendSaved(ctx, invoice)
	}
	return invoice, nil
}

func (s *Service) UpdateDraft(ctx context.Context, id string, req invoicedomain.UpsertInvoiceRequest) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	shipping, taxOverride, err := validateUpsert(req)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now().UTC()
	var updated invoicedomain.Invoice
	// Edits hold the send lease so a draft cannot change while it is being delivered.
	err = s.withSendLease(ctx, invoiceID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			invoice, err := s.loadInvoice(ctx, tx, invoiceID)
			if err != nil {
				return err
			}
			if err := invoicedomain.CanPerform(invoice.Status, invoicedomain.ActionEdit); err != nil {
				return err
			}

			if req.InvoiceDate != nil {
				invoice.InvoiceDate = clock.DateOf(*req.InvoiceDate)
			}
			if req.DueDate != nil {
				invoice.DueDate = clock.DateOf(*req.DueDate)
			}
			if invoice.DueDate.Before(invoice.InvoiceDate) {
				return invoicedomain.ErrInvalidDueDate
			}

			invoice.Client = normalizeClient(req.Client)
			invoice.Notes = strings.TrimSpace(req.Notes)
			invoice.Items = s.buildItems(req.Items, true)
			invoice.ShippingCost = shipping

			switch {
			case taxOverride != nil:
				invoice.SetTaxPolicy(invoicedomain.ManualTax(*taxOverride))
			case req.ResetTax:
				invoice.SetTaxPolicy(invoicedomain.AutoTax(s.invoicingConfig().Rate()))
			}
			invoice.Recalculate()
			invoice.UpdatedAt = now

			if err := s.repo.Update(ctx, tx, invoice, invoice.Version); err != nil {
				return err
			}
			if err := s.repo.ReplaceItems(ctx, tx, invoice.ID, invoice.Items); err != nil {
				return err
			}
			updated = *invoice
			return nil
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.audit(ctx, auditdomain.ActionInvoiceUpdated, &updated, nil)

	if req.Send {
		return s.sendSaved(ctx, updated)
	}
	return updated, nil
}

// sendSaved sends a draft that was just saved. On failure the saved draft is returned with the
// error so the caller can retry Send by id instead of creating another draft.
func (s *Service) sendSaved(ctx context.Context, draft invoicedomain.Invoice) (invoicedomain.Invoice, error) {
	sent, err := s.Send(ctx, draft.ID.String())
	if err != nil {
		return draft, err
	}
	return sent, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice, err := s.loadInvoice(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) loadInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) buildItems(inputs []invoicedomain.LineItemInput, withIDs bool) []invoicedomain.LineItem {
	items := make([]invoicedomain.LineItem, 0, len(inputs))
	for i, input := range inputs {
		item := invoicedomain.LineItem{
			Position:    i,
			Description: strings.TrimSpace(input.Description),
			Quantity:    invoicedomain.ParseQuantity(input.Quantity),
			UnitPrice:   invoicedomain.ParseAmount(input.UnitPrice),
		}
		if withIDs {
			item.ID = s.genID.Generate()
		}
		items = append(items, item)
	}
	return items
}

func (s *Service) invoicingConfig() config.InvoicingConfig {
	if s.invoicing == nil {
		return config.DefaultInvoicingConfig()
	}
	return s.invoicing.Get()
}

func (s *Service) audit(ctx context.Context, action string, invoice *invoicedomain.Invoice, extra map[string]any) {
	if s.auditSvc == nil || invoice == nil {
		return
	}
	targetID := invoice.ID.String()
	metadata := map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"status":         string(invoice.Status),
		"total":          invoice.Total.StringFixed(2),
		"version":        invoice.Version,
	}
	for k, v := range extra {
		metadata[k] = v
	}
	if err := s.auditSvc.AuditLog(ctx, action, auditdomain.TargetTypeInvoice, &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("invoice_id", targetID),
			zap.Error(err),
		)
	}
}

// validateUpsert rejects negative shipping and tax input before anything is written.
func validateUpsert(req invoicedomain.UpsertInvoiceRequest) (shipping decimal.Decimal, taxOverride *decimal.Decimal, err error) {
	shipping = invoicedomain.ParseAmount(req.ShippingCost)
	if shipping.IsNegative() {
		return shipping, nil, invoicedomain.ErrInvalidShippingCost
	}
	if req.TaxOverride != nil {
		tax := invoicedomain.ParseAmount(*req.TaxOverride)
		if tax.IsNegative() {
			return shipping, nil, invoicedomain.ErrInvalidTaxAmount
		}
		taxOverride = &tax
	}
	return shipping, taxOverride, nil
}

func normalizeClient(c invoicedomain.Client) invoicedomain.Client {
	return invoicedomain.Client{
		Name:         strings.TrimSpace(c.Name),
		Email:        strings.TrimSpace(c.Email),
		Phone:        strings.TrimSpace(c.Phone),
		AddressLine1: strings.TrimSpace(c.AddressLine1),
		AddressLine2: strings.TrimSpace(c.AddressLine2),
		City:         strings.TrimSpace(c.City),
		State:        strings.TrimSpace(c.State),
		PostalCode:   strings.TrimSpace(c.PostalCode),
		Country:      strings.TrimSpace(c.Country),
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}

func isConflict(err error) bool {
	return errors.Is(err, invoicedomain.ErrConcurrentModification)
}
