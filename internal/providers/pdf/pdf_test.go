package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() invoicedomain.Invoice {
	inv := invoicedomain.Invoice{
		InvoiceNumber: "INV-202603-001",
		Status:        invoicedomain.InvoiceStatusSent,
		InvoiceDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Client: invoicedomain.Client{
			Name:         "Acme",
			Email:        "ap@acme.test",
			AddressLine1: "1 Main St",
			City:         "Newark",
			State:        "NJ",
			PostalCode:   "07102",
		},
		Items: []invoicedomain.LineItem{
			{Description: "Pick and pack", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{Description: "Label", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
		ShippingCost: decimal.NewFromInt(5),
		TaxMode:      invoicedomain.TaxModeAuto,
		TaxRate:      invoicedomain.DefaultTaxRate,
	}
	inv.Recalculate()
	return inv
}

func TestRenderInvoice(t *testing.T) {
	out, err := New().RenderInvoice(context.Background(), sampleInvoice(), config.IssuerConfig{
		Name:                "Fulfillment Co",
		PaymentInstructions: "Pay by Zelle",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderReceipt(t *testing.T) {
	ref := "ZL-991"
	payment := invoicedomain.Payment{
		Amount:    decimal.NewFromInt(10),
		Date:      time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		Method:    invoicedomain.PaymentMethodZelle,
		Reference: &ref,
	}
	out, err := New().RenderReceipt(context.Background(), sampleInvoice(), payment, config.IssuerConfig{Name: "Fulfillment Co"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderInvoice_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().RenderInvoice(ctx, sampleInvoice(), config.IssuerConfig{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientAddress(t *testing.T) {
	got := clientAddress(invoicedomain.Client{AddressLine1: "1 Main St", City: "Newark", State: "NJ", PostalCode: "07102"})
	assert.Equal(t, "1 Main St\nNewark NJ 07102", got)
}
