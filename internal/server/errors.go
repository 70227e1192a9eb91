package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	deletelogdomain "github.com/smallbiznis/invoicedesk/internal/deletelog/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
	// Data carries a resource that was saved before the request failed.
	Data any `json:"data,omitempty"`
}

const errorDataKey = "error_data"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		resp := errorResponse{Error: payload}
		if data, ok := c.Get(errorDataKey); ok {
			resp.Data = data
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, resp)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// AbortWithSavedResource fails the request but still returns data that was persisted.
func AbortWithSavedResource(c *gin.Context, err error, data any) {
	c.Set(errorDataKey, data)
	AbortWithError(c, err)
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, invoicedomain.ErrDeliveryFailed),
		errors.Is(err, invoicedomain.ErrRenderFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "delivery_error",
			Message: deliveryMessage(err),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and a stable code for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if status == http.StatusConflict || status == http.StatusBadGateway {
		code = payload.Message
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		invoicedomain.IsValidationError(err),
		errors.Is(err, deletelogdomain.ErrInvalidID),
		errors.Is(err, deletelogdomain.ErrInvalidReason),
		errors.Is(err, deletelogdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, invoicedomain.ErrInvalidTransition),
		errors.Is(err, invoicedomain.ErrInvoiceNotEditable),
		errors.Is(err, invoicedomain.ErrConcurrentModification),
		errors.Is(err, invoicedomain.ErrSendInProgress),
		errors.Is(err, deletelogdomain.ErrAlreadyRestored),
		db.IsDuplicateKeyErr(err):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	for _, known := range []error{
		invoicedomain.ErrInvalidTransition,
		invoicedomain.ErrInvoiceNotEditable,
		invoicedomain.ErrConcurrentModification,
		invoicedomain.ErrSendInProgress,
		deletelogdomain.ErrAlreadyRestored,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "conflict"
}

func deliveryMessage(err error) string {
	if errors.Is(err, invoicedomain.ErrRenderFailed) {
		return invoicedomain.ErrRenderFailed.Error()
	}
	return invoicedomain.ErrDeliveryFailed.Error()
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, invoicedomain.ErrPaymentNotFound),
		errors.Is(err, deletelogdomain.ErrEntryNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	for _, known := range []error{
		ErrInvalidRequest,
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidPaymentAmount,
		invoicedomain.ErrInvalidPaymentMethod,
		invoicedomain.ErrInvalidShippingCost,
		invoicedomain.ErrInvalidTaxAmount,
		invoicedomain.ErrInvalidDueDate,
		invoicedomain.ErrInvalidDisputeReason,
		invoicedomain.ErrInvalidCancelReason,
		invoicedomain.ErrInvalidView,
		invoicedomain.ErrMissingClientEmail,
		invoicedomain.ErrMissingClientName,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "missing_client_email":
		return "client.email"
	case "missing_client_name":
		return "client.name"
	case "invalid_payment_amount":
		return "amount"
	case "invalid_payment_method":
		return "method"
	case "invalid_dispute_reason", "invalid_cancel_reason":
		return "reason"
	case "invalid_tax_amount":
		return "tax_override"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_client_email":
		return "client email is required to send an invoice"
	case "missing_client_name":
		return "client name is required to send an invoice"
	case "invalid_payment_amount":
		return "payment amount must be greater than zero"
	default:
		return "invalid value"
	}
}
