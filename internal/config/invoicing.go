package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	DefaultTaxRate                = "0.06625"
	DefaultDueDays                = 2
	DefaultNumberPrefix           = "INV"
	DefaultPaymentHistoryPageSize = 25
)

// InvoicingConfig carries the operator-tunable invoicing defaults.
type InvoicingConfig struct {
	TaxRate                string `mapstructure:"taxRate"`
	DueDays                int    `mapstructure:"dueDays"`
	NumberPrefix           string `mapstructure:"numberPrefix"`
	PaymentHistoryPageSize int    `mapstructure:"paymentHistoryPageSize"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		TaxRate:                DefaultTaxRate,
		DueDays:                DefaultDueDays,
		NumberPrefix:           DefaultNumberPrefix,
		PaymentHistoryPageSize: DefaultPaymentHistoryPageSize,
	}
}

// Rate returns the parsed tax rate. The value is validated on load.
func (c InvoicingConfig) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.RequireFromString(DefaultTaxRate)
	}
	return rate
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewStaticInvoicingConfig returns a holder that never reloads.
func NewStaticInvoicingConfig(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewInvoicingConfigHolder() (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invoicedesk")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INVOICEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.taxRate", defaults.TaxRate)
	v.SetDefault("invoicing.dueDays", defaults.DueDays)
	v.SetDefault("invoicing.numberPrefix", defaults.NumberPrefix)
	v.SetDefault("invoicing.paymentHistoryPageSize", defaults.PaymentHistoryPageSize)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInvoicingConfig(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Printf("[invoicing-config] reload failed: %v", err)
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Printf("[invoicing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[invoicing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	return h.current.Load().(InvoicingConfig)
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxRate))
	if err != nil {
		return fmt.Errorf("invoicing.taxRate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("invoicing.taxRate must be within [0, 1)")
	}
	if cfg.DueDays < 0 {
		return errors.New("invoicing.dueDays cannot be negative")
	}
	if strings.TrimSpace(cfg.NumberPrefix) == "" {
		return errors.New("invoicing.numberPrefix cannot be empty")
	}
	if cfg.PaymentHistoryPageSize <= 0 {
		return errors.New("invoicing.paymentHistoryPageSize must be positive")
	}
	return nil
}
