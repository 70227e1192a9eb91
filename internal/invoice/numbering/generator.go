package numbering

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Redis     *redis.Client `optional:"true"`
	Invoicing *config.InvoicingConfigHolder
	Log       *zap.Logger
}

// Generator formats invoice numbers as {prefix}-{yyyyMM}-{seq}.
type Generator struct {
	seq       Sequencer
	invoicing *config.InvoicingConfigHolder
}

func New(p Params) invoicedomain.NumberGenerator {
	log := p.Log.Named("invoice.numbering")
	if p.Redis != nil {
		log.Info("using redis invoice sequence")
		return NewGenerator(NewRedisSequencer(p.Redis), p.Invoicing)
	}
	log.Info("using database invoice sequence")
	return NewGenerator(NewDBSequencer(p.DB), p.Invoicing)
}

func NewGenerator(seq Sequencer, invoicing *config.InvoicingConfigHolder) *Generator {
	return &Generator{seq: seq, invoicing: invoicing}
}

func (g *Generator) Next(ctx context.Context, at time.Time) (string, error) {
	period := at.UTC().Format("200601")
	n, err := g.seq.Next(ctx, period)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return Format(g.prefix(), period, n), nil
}

func (g *Generator) prefix() string {
	if g.invoicing == nil {
		return config.DefaultNumberPrefix
	}
	prefix := strings.TrimSpace(g.invoicing.Get().NumberPrefix)
	if prefix == "" {
		return config.DefaultNumberPrefix
	}
	return prefix
}

// Format pads seq to at least three digits.
func Format(prefix, period string, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, period, seq)
}
