package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
)

type DeleteRequest struct {
	InvoiceID string
	Reason    string
}

type ListRequest struct {
	pagination.Pagination
	Restored *bool
	Query    string
}

type ListResponse struct {
	pagination.PageInfo
	Entries []Entry `json:"entries"`
}

type Service interface {
	Delete(context.Context, DeleteRequest) (Entry, error)
	// Restore creates a new invoice from the entry snapshot. It succeeds once per entry.
	Restore(ctx context.Context, id string) (invoicedomain.Invoice, error)
	Get(ctx context.Context, id string) (Entry, error)
	List(context.Context, ListRequest) (ListResponse, error)
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidReason    = errors.New("invalid_reason")
	ErrEntryNotFound    = errors.New("delete_log_not_found")
	ErrAlreadyRestored  = errors.New("already_restored")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
