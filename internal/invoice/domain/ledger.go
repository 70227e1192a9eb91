package domain

import (
	"fmt"
	"strings"
)

// ApplyPayment appends p and promotes the status from the resulting outstanding balance.
// The invoice is untouched when p is rejected.
func (inv *Invoice) ApplyPayment(p Payment) error {
	// Sub-cent amounts round to zero and are rejected like any other non-positive amount.
	p.Amount = RoundMoney(p.Amount)
	if !p.Amount.IsPositive() {
		return ErrInvalidPaymentAmount
	}
	if !p.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, p.Method)
	}
	if err := CanPerform(inv.Status, ActionApplyPayment); err != nil {
		return err
	}

	inv.Payments = append(inv.Payments, p)
	inv.Recalculate()

	if inv.OutstandingBalance.IsZero() {
		inv.Status = InvoiceStatusPaid
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
	}
	return nil
}

// ParsePaymentMethod matches a method name case-insensitively.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	for _, m := range paymentMethods {
		if strings.EqualFold(string(m), strings.TrimSpace(raw)) {
			return m, true
		}
	}
	return "", false
}
