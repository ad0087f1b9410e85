// Package email delivers transactional mail over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/craftlink/identity-service/internal/core/ports"
)

const defaultSendTimeout = 10 * time.Second

// Config carries SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Dispatcher implements ports.EmailDispatcher over SMTP.
type Dispatcher struct {
	client *gomail.Client
	from   string
}

// NewDispatcher builds an SMTP dispatcher. The connection is established per
// send; a send timeout bounds each dispatch so a slow relay cannot stall a
// registration beyond its rollback window.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &Dispatcher{client: client, from: cfg.From}, nil
}

// Send delivers one plaintext message. The error return is the caller's
// signal for fatal-vs-non-fatal handling.
func (d *Dispatcher) Send(ctx context.Context, msg ports.EmailMessage) error {
	m := gomail.NewMsg()
	if err := m.From(d.from); err != nil {
		return fmt.Errorf("email from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("email recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if err := d.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
