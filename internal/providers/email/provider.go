package email

import "context"

// Attachment is a file sent alongside the HTML body.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
	// Headers are extra RFC 5322 headers, e.g. X-Correlation-ID.
	Headers map[string]string
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
	SendTemplate(ctx context.Context, msg Message, templateName string, data any) error
}

// NoOpProvider accepts every message without delivering it.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) error {
	return ctx.Err()
}

func (p *NoOpProvider) SendTemplate(ctx context.Context, msg Message, templateName string, data any) error {
	if _, err := Render(templateName, data); err != nil {
		return err
	}
	return ctx.Err()
}
