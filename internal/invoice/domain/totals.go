package domain

import "github.com/shopspring/decimal"

// DefaultTaxRate is the flat sales tax rate applied when no override is set.
var DefaultTaxRate = decimal.RequireFromString("0.06625")

type TaxMode string

const (
	TaxModeAuto   TaxMode = "auto"
	TaxModeManual TaxMode = "manual"
)

// TaxPolicy is either Auto (tax follows subtotal × Rate) or Manual (tax is a fixed Amount).
// A manual amount is kept as-is across later item and shipping edits.
type TaxPolicy struct {
	Mode   TaxMode
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

func AutoTax(rate decimal.Decimal) TaxPolicy {
	return TaxPolicy{Mode: TaxModeAuto, Rate: rate}
}

func ManualTax(amount decimal.Decimal) TaxPolicy {
	return TaxPolicy{Mode: TaxModeManual, Amount: RoundMoney(amount)}
}

func (p TaxPolicy) IsManual() bool { return p.Mode == TaxModeManual }

// Resolve returns the sales tax owed on subtotal under this policy.
func (p TaxPolicy) Resolve(subtotal decimal.Decimal) decimal.Decimal {
	if p.IsManual() {
		return RoundMoney(p.Amount)
	}
	return RoundMoney(subtotal.Mul(p.Rate))
}

type Totals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	SalesTax           decimal.Decimal `json:"sales_tax"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	Total              decimal.Decimal `json:"total"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// CalculateLineItems recomputes every item's amount and returns the items with their subtotal.
// The input slice is not modified.
func CalculateLineItems(items []LineItem) ([]LineItem, decimal.Decimal) {
	out := make([]LineItem, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		item.Amount = decimal.NewFromInt(item.Quantity).Mul(item.UnitPrice)
		subtotal = subtotal.Add(item.Amount)
		out[i] = item
	}
	return out, subtotal
}

// ComposeTotals combines subtotal, tax and shipping into a total and derives the outstanding balance.
// Negative shipping is clamped to zero.
func ComposeTotals(subtotal decimal.Decimal, tax TaxPolicy, shipping, amountPaid decimal.Decimal) Totals {
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}
	shipping = RoundMoney(shipping)
	salesTax := tax.Resolve(subtotal)
	total := RoundMoney(subtotal.Add(salesTax).Add(shipping))

	return Totals{
		Subtotal:           subtotal,
		SalesTax:           salesTax,
		ShippingCost:       shipping,
		Total:              total,
		AmountPaid:         amountPaid,
		OutstandingBalance: Outstanding(total, amountPaid),
	}
}

// Outstanding is total minus paid, floored at zero. Overpayment is absorbed.
func Outstanding(total, amountPaid decimal.Decimal) decimal.Decimal {
	remaining := RoundMoney(total.Sub(amountPaid))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func ComputeTotals(items []LineItem, tax TaxPolicy, shipping, amountPaid decimal.Decimal) ([]LineItem, Totals) {
	calculated, subtotal := CalculateLineItems(items)
	return calculated, ComposeTotals(subtotal, tax, shipping, amountPaid)
}

func SumPayments(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

func (inv *Invoice) TaxPolicy() TaxPolicy {
	if inv.TaxMode == TaxModeManual {
		return TaxPolicy{Mode: TaxModeManual, Rate: inv.TaxRate, Amount: inv.SalesTax}
	}
	return AutoTax(inv.TaxRate)
}

// SetTaxPolicy switches the invoice's tax mode. Call Recalculate afterwards.
func (inv *Invoice) SetTaxPolicy(p TaxPolicy) {
	inv.TaxMode = p.Mode
	if p.IsManual() {
		inv.SalesTax = RoundMoney(p.Amount)
		return
	}
	inv.TaxRate = p.Rate
}

// Recalculate restores the monetary invariants from items, tax policy, shipping and payments.
func (inv *Invoice) Recalculate() {
	items, totals := ComputeTotals(inv.Items, inv.TaxPolicy(), inv.ShippingCost, SumPayments(inv.Payments))
	for i := range items {
		items[i].Position = i
	}
	inv.Items = items
	inv.Subtotal = totals.Subtotal
	inv.SalesTax = totals.SalesTax
	inv.ShippingCost = totals.ShippingCost
	inv.Total = totals.Total
	inv.AmountPaid = totals.AmountPaid
	inv.OutstandingBalance = totals.OutstandingBalance
}

func (inv *Invoice) Totals() Totals {
	return Totals{
		Subtotal:           inv.Subtotal,
		SalesTax:           inv.SalesTax,
		ShippingCost:       inv.ShippingCost,
		Total:              inv.Total,
		AmountPaid:         inv.AmountPaid,
		OutstandingBalance: inv.OutstandingBalance,
	}
}
