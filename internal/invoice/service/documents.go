package service

import (
	"context"
	"fmt"
	"strings"

	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

func (s *Service) RenderPDF(ctx context.Context, id string) (invoicedomain.Document, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	invoice, err := s.loadInvoice(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	data, err := s.pdf.RenderInvoice(ctx, *invoice, s.issuer)
	if err != nil {
		return invoicedomain.Document{}, fmt.Errorf("%w: %w", invoicedomain.ErrRenderFailed, err)
	}
	return invoicedomain.Document{
		Filename:    attachmentFilename(invoice),
		ContentType: pdfContentType,
		Data:        data,
	}, nil
}

func (s *Service) RenderReceipt(ctx context.Context, id string, paymentID string) (invoicedomain.Document, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	pid, err := parseID(paymentID)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	invoice, err := s.loadInvoice(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	var payment *invoicedomain.Payment
	for i := range invoice.Payments {
		if invoice.Payments[i].ID == pid {
			payment = &invoice.Payments[i]
			break
		}
	}
	if payment == nil {
		return invoicedomain.Document{}, invoicedomain.ErrPaymentNotFound
	}

	data, err := s.pdf.RenderReceipt(ctx, *invoice, *payment, s.issuer)
	if err != nil {
		return invoicedomain.Document{}, fmt.Errorf("%w: %w", invoicedomain.ErrRenderFailed, err)
	}
	return invoicedomain.Document{
		Filename:    fmt.Sprintf("receipt-%s-%s.pdf", strings.ToLower(invoice.InvoiceNumber), payment.ID.String()),
		ContentType: pdfContentType,
		Data:        data,
	}, nil
}
