package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefaultInvoicingConfigIsValid(t *testing.T) {
	cfg := DefaultInvoicingConfig()
	assert.NoError(t, validateInvoicingConfig(cfg))
	assert.True(t, cfg.Rate().Equal(decimal.RequireFromString("0.06625")))
}

func TestValidateInvoicingConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*InvoicingConfig){
		"non numeric rate": func(c *InvoicingConfig) { c.TaxRate = "six percent" },
		"negative rate":    func(c *InvoicingConfig) { c.TaxRate = "-0.01" },
		"rate of one":      func(c *InvoicingConfig) { c.TaxRate = "1" },
		"negative due":     func(c *InvoicingConfig) { c.DueDays = -1 },
		"empty prefix":     func(c *InvoicingConfig) { c.NumberPrefix = " " },
		"zero page size":   func(c *InvoicingConfig) { c.PaymentHistoryPageSize = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultInvoicingConfig()
			mutate(&cfg)
			assert.Error(t, validateInvoicingConfig(cfg))
		})
	}
}

func TestStaticHolder(t *testing.T) {
	cfg := DefaultInvoicingConfig()
	cfg.DueDays = 14
	holder := NewStaticInvoicingConfig(cfg)
	assert.Equal(t, 14, holder.Get().DueDays)
}
