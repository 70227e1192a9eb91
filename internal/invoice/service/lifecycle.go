package service

import (
	"context"
	"time"

	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"gorm.io/gorm"
)

func (s *Service) MarkDisputed(ctx context.Context, req invoicedomain.DisputeRequest) (invoicedomain.Invoice, error) {
	return s.transition(ctx, req.InvoiceID, auditdomain.ActionInvoiceDisputed, func(inv *invoicedomain.Invoice, now time.Time) error {
		return inv.MarkDisputed(req.Reason, req.Notes, now)
	}, func(inv *invoicedomain.Invoice) map[string]any {
		return map[string]any{"reason": inv.Dispute.Reason}
	})
}

func (s *Service) ResolveDispute(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, auditdomain.ActionInvoiceDisputeResolved, func(inv *invoicedomain.Invoice, now time.Time) error {
		return inv.ResolveDispute(now)
	}, nil)
}

func (s *Service) Cancel(ctx context.Context, req invoicedomain.CancelRequest) (invoicedomain.Invoice, error) {
	return s.transition(ctx, req.InvoiceID, auditdomain.ActionInvoiceCancelled, func(inv *invoicedomain.Invoice, now time.Time) error {
		return inv.Cancel(req.Reason, now)
	}, func(inv *invoicedomain.Invoice) map[string]any {
		return map[string]any{"reason": inv.Cancellation.Reason}
	})
}

// transition loads, mutates and writes an invoice under its version check.
// A conflicting write surfaces as ErrConcurrentModification.
func (s *Service) transition(
	ctx context.Context,
	id string,
	action string,
	mutate func(*invoicedomain.Invoice, time.Time) error,
	metadata func(*invoicedomain.Invoice) map[string]any,
) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var (
		updated    invoicedomain.Invoice
		prevStatus invoicedomain.InvoiceStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		prevStatus = invoice.Status

		now := s.clock.Now().UTC()
		if err := mutate(invoice, now); err != nil {
			return err
		}
		invoice.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, invoice, invoice.Version); err != nil {
			return err
		}
		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.metrics.RecordTransition(ctx, string(prevStatus), string(updated.Status))
	extra := map[string]any{"from_status": string(prevStatus)}
	if metadata != nil {
		for k, v := range metadata(&updated) {
			extra[k] = v
		}
	}
	s.audit(ctx, action, &updated, extra)

	return updated, nil
}
