package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render executes the embedded template templates/{name}.html.
func Render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name+".html", data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return body.String(), nil
}

// InvoiceEmailData feeds the invoice_sent template.
type InvoiceEmailData struct {
	IssuerName          string
	IssuerEmail         string
	IssuerPhone         string
	ClientName          string
	InvoiceNumber       string
	InvoiceDate         string
	DueDate             string
	Total               string
	AmountDue           string
	Notes               string
	PaymentInstructions string
}
