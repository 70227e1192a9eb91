package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

const dateLayout = "Jan 2, 2006"

func newDocument() core.Maroto {
	cfg := mconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func clientAddress(c invoicedomain.Client) string {
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(c.City, c.State, c.PostalCode), " "))
	return strings.Join(nonEmpty(c.AddressLine1, c.AddressLine2, cityLine, c.Country), "\n")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func addParties(m core.Maroto, issuer config.IssuerConfig, client invoicedomain.Client) {
	m.AddRow(40,
		col.New(6).Add(
			text.New(issuer.Name, props.Text{Style: fontstyle.Bold}),
			text.New(issuer.Address, props.Text{Top: 5}),
			text.New(strings.Join(nonEmpty(issuer.Email, issuer.Phone), "  "), props.Text{Top: 20}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(client.Name, props.Text{Top: 5}),
			text.New(clientAddress(client), props.Text{Top: 9}),
			text.New(strings.Join(nonEmpty(client.Email, client.Phone), "  "), props.Text{Top: 25}),
		),
	)
}

func addItems(m core.Maroto, items []invoicedomain.LineItem) {
	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, invoicedomain.FormatMoney(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, invoicedomain.FormatMoney(item.Amount), props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func addTotalRow(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, label, props.Text{Size: 9, Style: style}),
		text.NewCol(2, value, props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}
