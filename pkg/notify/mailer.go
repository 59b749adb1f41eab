// Package notify emails users a link to their archived image.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
)

type emailService interface {
	NewMessage() *mailersend.Message
	Send(ctx context.Context, message *mailersend.Message) (*mailersend.Response, error)
}

type Mailer struct {
	email    emailService
	from     mailersend.From
	sendWait time.Duration
}

func NewMailer(cfg config.Email) *Mailer {
	ms := mailersend.NewMailersend(cfg.APIKey)
	return newMailer(ms.Email, cfg)
}

func newMailer(email emailService, cfg config.Email) *Mailer {
	return &Mailer{
		email:    email,
		from:     mailersend.From{Name: cfg.FromName, Email: cfg.From},
		sendWait: 5 * time.Second,
	}
}

// ImageReady sends the archive link for correlationID to the given address.
func (m *Mailer) ImageReady(ctx context.Context, to, correlationID, imageURL string) error {
	if to == "" || imageURL == "" {
		return fmt.Errorf("recipient and image url are required")
	}

	ctx, cancel := context.WithTimeout(ctx, m.sendWait)
	defer cancel()

	message := m.email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject("image generated")
	message.SetText(fmt.Sprintf("your image has been generated (%s) --> %s", correlationID, imageURL))
	message.SetHTML(fmt.Sprintf("<h1>your image has been generated --> <a href=\"%s\">%s</a></h1><p>reference: %s</p>",
		imageURL, imageURL, correlationID))

	if _, err := m.email.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
