package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

// RenderReceipt renders a confirmation for a single payment against invoice.
func (p *PDFProvider) RenderReceipt(ctx context.Context, invoice invoicedomain.Invoice, payment invoicedomain.Payment, issuer config.IssuerConfig) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := newDocument()

	m.AddRow(15,
		text.NewCol(12, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	meta := []string{
		"Invoice number: " + invoice.InvoiceNumber,
		"Date paid: " + formatDate(payment.Date),
		"Payment method: " + string(payment.Method),
	}
	if payment.Reference != nil && *payment.Reference != "" {
		meta = append(meta, "Reference: "+*payment.Reference)
	}
	metaCol := col.New(6)
	for i, line := range meta {
		metaCol.Add(text.New(line, props.Text{Top: float64(i * 4)}))
	}
	m.AddRow(20, metaCol, col.New(6))

	addParties(m, issuer, invoice.Client)

	m.AddRow(15,
		text.NewCol(12, fmt.Sprintf("%s paid on %s",
			invoicedomain.FormatMoney(payment.Amount),
			formatDate(payment.Date),
		), props.Text{Size: 14, Style: fontstyle.Bold, Top: 5}),
	)

	addItems(m, invoice.Items)

	addTotalRow(m, "Total", invoicedomain.FormatMoney(invoice.Total), false)
	addTotalRow(m, "Paid to date", invoicedomain.FormatMoney(invoice.AmountPaid), false)
	addTotalRow(m, "Balance", invoicedomain.FormatMoney(invoice.OutstandingBalance), true)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
