package domain

import (
	"strings"
	"time"
)

// View is a dashboard tab: a persisted status, the derived overdue view, or all.
type View string

const (
	ViewAll           View = "all"
	ViewOverdue       View = "overdue"
	ViewDraft         View = View(InvoiceStatusDraft)
	ViewSent          View = View(InvoiceStatusSent)
	ViewPartiallyPaid View = View(InvoiceStatusPartiallyPaid)
	ViewPaid          View = View(InvoiceStatusPaid)
	ViewDisputed      View = View(InvoiceStatusDisputed)
	ViewCancelled     View = View(InvoiceStatusCancelled)
)

// Views lists the tabs in dashboard order.
var Views = []View{
	ViewAll,
	ViewDraft,
	ViewSent,
	ViewPartiallyPaid,
	ViewOverdue,
	ViewPaid,
	ViewDisputed,
	ViewCancelled,
}

func ParseView(raw string) (View, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ViewAll, nil
	}
	for _, v := range Views {
		if string(v) == raw {
			return v, nil
		}
	}
	return "", ErrInvalidView
}

// Statuses returns the persisted statuses a view draws from. Nil means every status.
func (v View) Statuses() []InvoiceStatus {
	switch v {
	case ViewAll:
		return nil
	case ViewOverdue:
		return []InvoiceStatus{InvoiceStatusSent, InvoiceStatusPartiallyPaid}
	default:
		return []InvoiceStatus{InvoiceStatus(v)}
	}
}

// Matches reports whether inv is shown under v. Overdue invoices leave the sent and partially paid tabs.
func (v View) Matches(inv *Invoice, today time.Time) bool {
	switch v {
	case ViewAll:
		return true
	case ViewOverdue:
		return inv.IsOverdue(today)
	case ViewSent, ViewPartiallyPaid:
		return inv.Status == InvoiceStatus(v) && !inv.IsOverdue(today)
	default:
		return inv.Status == InvoiceStatus(v)
	}
}

// FilterView keeps the invoices that belong to v, preserving order.
func FilterView(invoices []Invoice, v View, today time.Time) []Invoice {
	out := make([]Invoice, 0, len(invoices))
	for i := range invoices {
		if v.Matches(&invoices[i], today) {
			out = append(out, invoices[i])
		}
	}
	return out
}

// CountViews tallies every tab over the same invoice set.
func CountViews(invoices []Invoice, today time.Time) map[View]int {
	counts := make(map[View]int, len(Views))
	for _, v := range Views {
		counts[v] = 0
	}
	for i := range invoices {
		counts[ViewAll]++
		counts[invoices[i].DisplayStatus(today)]++
	}
	return counts
}
