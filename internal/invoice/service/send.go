package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	"github.com/smallbiznis/invoicedesk/internal/auditcontext"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	sendLockKey = "invoicedesk:invoice_send:%s"
	sendLockTTL = 2 * time.Minute

	invoiceEmailTemplate = "invoice_sent"
	pdfContentType       = "application/pdf"
)

// Send renders the invoice PDF, emails it to the client and only then marks the invoice sent.
// Any failure leaves the invoice in draft. Delivery is at-least-once: when the final write loses
// a version race the client already has the email, the invoice stays draft and the caller gets
// concurrent_modification. Edits hold the same send lease, so with redis configured that race
// needs a writer outside this service.
func (s *Service) Send(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	ctx, span := tracer.Start(ctx, "invoice.send")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(attribute.String("invoice_id", invoiceID.String()))...)

	var sent invoicedomain.Invoice
	err = s.withSendLease(ctx, invoiceID, func() error {
		invoice, err := s.deliver(ctx, span, invoiceID)
		if err != nil {
			return err
		}
		sent = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.metrics.RecordInvoiceSent(ctx)
	s.metrics.RecordTransition(ctx, string(invoicedomain.InvoiceStatusDraft), string(invoicedomain.InvoiceStatusSent))
	s.audit(ctx, auditdomain.ActionInvoiceSent, &sent, map[string]any{
		"client_email": sent.Client.Email,
	})

	return sent, nil
}

func (s *Service) deliver(ctx context.Context, span trace.Span, invoiceID snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.loadInvoice(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := invoicedomain.CanPerform(invoice.Status, invoicedomain.ActionSend); err != nil {
		return nil, err
	}
	if err := invoice.ValidateForSend(); err != nil {
		return nil, err
	}

	document, err := s.pdf.RenderInvoice(ctx, *invoice, s.issuer)
	if err != nil {
		s.deliveryFailed(ctx, span, invoice, "render", err)
		return nil, fmt.Errorf("%w: %w", invoicedomain.ErrRenderFailed, err)
	}

	ctx, correlationID := auditcontext.EnsureCorrelationID(ctx)
	msg := email.Message{
		To:      []string{invoice.Client.Email},
		Subject: fmt.Sprintf("Invoice %s from %s", invoice.InvoiceNumber, s.issuer.Name),
		Attachments: []email.Attachment{{
			Filename:    attachmentFilename(invoice),
			ContentType: pdfContentType,
			Data:        document,
		}},
		Headers: map[string]string{"X-Correlation-ID": correlationID},
	}
	if err := s.email.SendTemplate(ctx, msg, invoiceEmailTemplate, s.emailData(invoice)); err != nil {
		s.deliveryFailed(ctx, span, invoice, "email", err)
		return nil, fmt.Errorf("%w: %w", invoicedomain.ErrDeliveryFailed, err)
	}

	now := s.clock.Now().UTC()
	if err := invoice.MarkSent(now); err != nil {
		return nil, err
	}
	invoice.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, invoice, invoice.Version); err != nil {
		s.log.Error("invoice delivered but not marked sent",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		return nil, err
	}
	return invoice, nil
}

// withSendLease runs fn while holding the invoice's send lease.
func (s *Service) withSendLease(ctx context.Context, invoiceID snowflake.ID, fn func() error) error {
	key := fmt.Sprintf(sendLockKey, invoiceID.String())
	token, acquired, err := s.locker.TryLock(ctx, key, sendLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return invoicedomain.ErrSendInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("failed to release send lock", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
		}
	}()
	return fn()
}

func (s *Service) deliveryFailed(ctx context.Context, span trace.Span, invoice *invoicedomain.Invoice, stage string, err error) {
	span.RecordError(tracing.SafeError(err))
	span.SetStatus(codes.Error, stage+" failed")
	s.metrics.RecordDeliveryFailure(ctx, stage)
	s.log.Warn("invoice delivery failed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("stage", stage),
		zap.Error(err),
	)
}

func (s *Service) emailData(invoice *invoicedomain.Invoice) email.InvoiceEmailData {
	return email.InvoiceEmailData{
		IssuerName:          s.issuer.Name,
		IssuerEmail:         s.issuer.Email,
		IssuerPhone:         s.issuer.Phone,
		ClientName:          invoice.Client.Name,
		InvoiceNumber:       invoice.InvoiceNumber,
		InvoiceDate:         invoice.InvoiceDate.Format("Jan 2, 2006"),
		DueDate:             invoice.DueDate.Format("Jan 2, 2006"),
		Total:               invoicedomain.FormatMoney(invoice.Total),
		AmountDue:           invoicedomain.FormatMoney(invoice.OutstandingBalance),
		Notes:               invoice.Notes,
		PaymentInstructions: s.issuer.PaymentInstructions,
	}
}

// attachmentFilename is {invoice-number}-{client-slug}.pdf.
func attachmentFilename(invoice *invoicedomain.Invoice) string {
	clientSlug := slug.Make(invoice.Client.Name)
	if clientSlug == "" {
		return invoice.InvoiceNumber + ".pdf"
	}
	return fmt.Sprintf("%s-%s.pdf", invoice.InvoiceNumber, clientSlug)
}
