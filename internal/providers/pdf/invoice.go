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

func (p *PDFProvider) RenderInvoice(ctx context.Context, invoice invoicedomain.Invoice, issuer config.IssuerConfig) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := newDocument()

	m.AddRow(15,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+formatDate(invoice.InvoiceDate), props.Text{Top: 4}),
			text.New("Date due: "+formatDate(invoice.DueDate), props.Text{Top: 8}),
		),
		col.New(6),
	)

	addParties(m, issuer, invoice.Client)

	m.AddRow(15,
		text.NewCol(12, fmt.Sprintf("%s due %s",
			invoicedomain.FormatMoney(invoice.OutstandingBalance),
			formatDate(invoice.DueDate),
		), props.Text{Size: 14, Style: fontstyle.Bold, Top: 5}),
	)

	if issuer.PaymentInstructions != "" {
		m.AddRow(15, text.NewCol(12, issuer.PaymentInstructions, props.Text{Size: 9}))
	}

	addItems(m, invoice.Items)

	addTotalRow(m, "Subtotal", invoicedomain.FormatMoney(invoice.Subtotal), false)
	addTotalRow(m, "Sales tax", invoicedomain.FormatMoney(invoice.SalesTax), false)
	addTotalRow(m, "Shipping", invoicedomain.FormatMoney(invoice.ShippingCost), false)
	addTotalRow(m, "Total", invoicedomain.FormatMoney(invoice.Total), true)
	if invoice.AmountPaid.IsPositive() {
		addTotalRow(m, "Paid", invoicedomain.FormatMoney(invoice.AmountPaid), false)
	}
	addTotalRow(m, "Amount due", invoicedomain.FormatMoney(invoice.OutstandingBalance), true)

	if invoice.Notes != "" {
		m.AddRow(20, text.NewCol(12, invoice.Notes, props.Text{Size: 9, Top: 5}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
