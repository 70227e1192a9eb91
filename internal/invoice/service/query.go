package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
)

const maxPaymentHistoryPageSize = 100

// List returns the invoices in a view, optionally narrowed by a search query.
// Overdue membership depends on today's date so the view filter runs after the query.
func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	view, err := invoicedomain.ParseView(req.View)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices, err := s.repo.List(ctx, s.db, invoicedomain.ListFilter{
		Statuses: view.Statuses(),
		Query:    strings.TrimSpace(req.Query),
	})
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	return invoicedomain.ListInvoiceResponse{
		View:     view,
		Invoices: invoicedomain.FilterView(invoices, view, clock.Today(s.clock)),
	}, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]invoicedomain.Invoice, error) {
	return s.repo.List(ctx, s.db, invoicedomain.ListFilter{Query: strings.TrimSpace(query)})
}

func (s *Service) Counts(ctx context.Context, query string) (invoicedomain.ViewCounts, error) {
	invoices, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return invoicedomain.CountViews(invoices, clock.Today(s.clock)), nil
}

func (s *Service) PaymentHistory(ctx context.Context, req invoicedomain.PaymentHistoryRequest) (invoicedomain.PaymentHistoryResponse, error) {
	defaultSize := s.invoicingConfig().PaymentHistoryPageSize
	if defaultSize <= 0 {
		defaultSize = config.DefaultPaymentHistoryPageSize
	}
	page, pageSize, offset := pagination.NormalizePage(req.Page, req.PageSize, defaultSize, maxPaymentHistoryPageSize)

	entries, total, err := s.repo.ListPayments(ctx, s.db, offset, pageSize)
	if err != nil {
		return invoicedomain.PaymentHistoryResponse{}, err
	}
	if entries == nil {
		entries = []invoicedomain.PaymentHistoryEntry{}
	}

	return invoicedomain.PaymentHistoryResponse{
		Page:     pagination.NewPage(page, pageSize, total),
		Payments: entries,
	}, nil
}
