package domain

import "errors"

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvoiceNotFound        = errors.New("invoice_not_found")
	ErrPaymentNotFound        = errors.New("payment_not_found")
	ErrInvalidTransition      = errors.New("invalid_transition")
	ErrInvoiceNotEditable     = errors.New("invoice_not_editable")
	ErrConcurrentModification = errors.New("concurrent_modification")
	ErrSendInProgress         = errors.New("send_in_progress")

	ErrInvalidPaymentAmount = errors.New("invalid_payment_amount")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidShippingCost  = errors.New("invalid_shipping_cost")
	ErrInvalidTaxAmount     = errors.New("invalid_tax_amount")
	ErrInvalidDueDate       = errors.New("invalid_due_date")
	ErrInvalidDisputeReason = errors.New("invalid_dispute_reason")
	ErrInvalidCancelReason  = errors.New("invalid_cancel_reason")
	ErrInvalidView          = errors.New("invalid_view")
	ErrMissingClientEmail   = errors.New("missing_client_email")
	ErrMissingClientName    = errors.New("missing_client_name")

	ErrRenderFailed   = errors.New("render_failed")
	ErrDeliveryFailed = errors.New("delivery_failed")
)

// IsValidationError reports whether err is rejected input that left the invoice unchanged.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidPaymentAmount),
		errors.Is(err, ErrInvalidPaymentMethod),
		errors.Is(err, ErrInvalidShippingCost),
		errors.Is(err, ErrInvalidTaxAmount),
		errors.Is(err, ErrInvalidDueDate),
		errors.Is(err, ErrInvalidDisputeReason),
		errors.Is(err, ErrInvalidCancelReason),
		errors.Is(err, ErrInvalidView),
		errors.Is(err, ErrMissingClientEmail),
		errors.Is(err, ErrMissingClientName):
		return true
	default:
		return false
	}
}
