package domain

import (
	"fmt"
	"strings"
	"time"
)

// Action is an operation that may change or remove an invoice.
type Action string

const (
	ActionEdit           Action = "edit"
	ActionSend           Action = "send"
	ActionApplyPayment   Action = "apply_payment"
	ActionDispute        Action = "dispute"
	ActionResolveDispute Action = "resolve_dispute"
	ActionCancel         Action = "cancel"
	ActionDelete         Action = "delete"
)

// Paid and cancelled accept no status-changing action. Paid still absorbs overpayments.
var allowedActions = map[InvoiceStatus]map[Action]struct{}{
	InvoiceStatusDraft: {
		ActionEdit:   {},
		ActionSend:   {},
		ActionCancel: {},
		ActionDelete: {},
	},
	InvoiceStatusSent: {
		ActionApplyPayment: {},
		ActionDispute:      {},
		ActionCancel:       {},
		ActionDelete:       {},
	},
	InvoiceStatusPartiallyPaid: {
		ActionApplyPayment: {},
		ActionDispute:      {},
		ActionCancel:       {},
		ActionDelete:       {},
	},
	InvoiceStatusPaid: {
		ActionApplyPayment: {},
		ActionDelete:       {},
	},
	InvoiceStatusDisputed: {
		ActionResolveDispute: {},
		ActionCancel:         {},
		ActionDelete:         {},
	},
	InvoiceStatusCancelled: {
		ActionDelete: {},
	},
}

// CanPerform returns nil when action is legal from status.
func CanPerform(status InvoiceStatus, action Action) error {
	if _, ok := allowedActions[status][action]; ok {
		return nil
	}
	if action == ActionEdit {
		return fmt.Errorf("%w: %s invoices cannot be edited", ErrInvoiceNotEditable, status)
	}
	return fmt.Errorf("%w: cannot %s a %s invoice", ErrInvalidTransition, action, status)
}

func (inv *Invoice) MarkSent(at time.Time) error {
	if err := CanPerform(inv.Status, ActionSend); err != nil {
		return err
	}
	if err := inv.ValidateForSend(); err != nil {
		return err
	}
	sentAt := at.UTC()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &sentAt
	return nil
}

// ValidateForSend checks the fields a delivered invoice must carry.
func (inv *Invoice) ValidateForSend() error {
	if strings.TrimSpace(inv.Client.Email) == "" {
		return ErrMissingClientEmail
	}
	if strings.TrimSpace(inv.Client.Name) == "" {
		return ErrMissingClientName
	}
	return nil
}

func (inv *Invoice) MarkDisputed(reason, notes string, at time.Time) error {
	if err := CanPerform(inv.Status, ActionDispute); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrInvalidDisputeReason
	}
	openedAt := at.UTC()
	inv.Status = InvoiceStatusDisputed
	inv.Dispute = Dispute{
		Reason:   reason,
		Notes:    strings.TrimSpace(notes),
		Status:   DisputeStatusOpen,
		OpenedAt: &openedAt,
	}
	return nil
}

// ResolveDispute returns a disputed invoice to sent and keeps the dispute record as resolved.
func (inv *Invoice) ResolveDispute(at time.Time) error {
	if err := CanPerform(inv.Status, ActionResolveDispute); err != nil {
		return err
	}
	resolvedAt := at.UTC()
	inv.Status = InvoiceStatusSent
	inv.Dispute.Status = DisputeStatusResolved
	inv.Dispute.ResolvedAt = &resolvedAt
	return nil
}

func (inv *Invoice) Cancel(reason string, at time.Time) error {
	if err := CanPerform(inv.Status, ActionCancel); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrInvalidCancelReason
	}
	cancelledAt := at.UTC()
	inv.Status = InvoiceStatusCancelled
	inv.Cancellation = Cancellation{Reason: reason, CancelledAt: &cancelledAt}
	return nil
}

// IsOverdue is derived at read time: only sent or partially paid invoices past their due date.
func (inv *Invoice) IsOverdue(today time.Time) bool {
	switch inv.Status {
	case InvoiceStatusSent, InvoiceStatusPartiallyPaid:
		return inv.DueDate.Before(today)
	default:
		return false
	}
}

// DisplayStatus is the dashboard view an invoice belongs to.
func (inv *Invoice) DisplayStatus(today time.Time) View {
	if inv.IsOverdue(today) {
		return ViewOverdue
	}
	return View(inv.Status)
}
