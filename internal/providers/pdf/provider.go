package pdf

import (
	"context"

	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	RenderInvoice(ctx context.Context, invoice invoicedomain.Invoice, issuer config.IssuerConfig) ([]byte, error)
	RenderReceipt(ctx context.Context, invoice invoicedomain.Invoice, payment invoicedomain.Payment, issuer config.IssuerConfig) ([]byte, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}
