package service

import (
	"context"
	"strings"

	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPaymentAttempts = 3

// ApplyPayment records a payment and the resulting invoice totals in one transaction.
// A concurrent write to the same invoice causes a fresh read and retry.
func (s *Service) ApplyPayment(ctx context.Context, req invoicedomain.ApplyPaymentRequest) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	amount := invoicedomain.RoundMoney(invoicedomain.ParseAmount(req.Amount))
	if !amount.IsPositive() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPaymentAmount
	}
	method, ok := invoicedomain.ParsePaymentMethod(req.Method)
	if !ok {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPaymentMethod
	}
	paidOn := clock.Today(s.clock)
	if req.Date != nil {
		paidOn = clock.DateOf(*req.Date)
	}

	ctx, span := tracer.Start(ctx, "invoice.apply_payment")
	defer span.End()
	span.SetAttributes(
		attribute.String("invoice_id", invoiceID.String()),
		attribute.String("payment_method", string(method)),
	)

	var (
		updated    invoicedomain.Invoice
		payment    invoicedomain.Payment
		prevStatus invoicedomain.InvoiceStatus
	)
	for attempt := 1; attempt <= maxPaymentAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			invoice, err := s.loadInvoice(ctx, tx, invoiceID)
			if err != nil {
				return err
			}
			prevStatus = invoice.Status

			now := s.clock.Now().UTC()
			if err := invoice.ApplyPayment(invoicedomain.Payment{
				ID:        s.genID.Generate(),
				InvoiceID: invoice.ID,
				Amount:    amount,
				Date:      paidOn,
				Method:    method,
				Reference: trimmedPointer(req.Reference),
				Notes:     trimmedPointer(req.Notes),
				CreatedAt: now,
			}); err != nil {
				return err
			}
			invoice.UpdatedAt = now

			payment = invoice.Payments[len(invoice.Payments)-1]
			if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
				return err
			}
			if err := s.repo.Update(ctx, tx, invoice, invoice.Version); err != nil {
				return err
			}
			updated = *invoice
			return nil
		})
		if !isConflict(err) {
			break
		}
		s.log.Info("payment apply conflicted, retrying",
			zap.String("invoice_id", invoiceID.String()),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.metrics.RecordPaymentApplied(ctx, string(method), string(updated.Status))
	if prevStatus != updated.Status {
		s.metrics.RecordTransition(ctx, string(prevStatus), string(updated.Status))
	}
	s.audit(ctx, auditdomain.ActionInvoicePaymentApplied, &updated, map[string]any{
		"payment_id":     payment.ID.String(),
		"amount":         payment.Amount.StringFixed(2),
		"payment_method": string(payment.Method),
		"from_status":    string(prevStatus),
	})

	return updated, nil
}

func trimmedPointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
