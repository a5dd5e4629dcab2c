package emailsvc

import (
	"context"
	"crypto/tls"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/archify/backend/core"
)

type SMTPTransport struct {
	dialer *gomail.Dialer
	send   func(m *gomail.Message) error // mockable
}

var _ core.EmailTransport = (*SMTPTransport)(nil)

// NewSMTPTransport returns a transport speaking SMTP to conf.SMTPHost.
// Port 465 uses implicit TLS, any other port upgrades with STARTTLS when offered.
func NewSMTPTransport(conf core.MailConfig) *SMTPTransport {
	dialer := gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUsername, conf.SMTPPassword)
	dialer.TLSConfig = &tls.Config{ServerName: conf.SMTPHost, MinVersion: tls.VersionTLS12}

	t := &SMTPTransport{dialer: dialer}
	t.send = func(m *gomail.Message) error { return t.dialer.DialAndSend(m) }
	return t
}

func (t *SMTPTransport) Name() string { return core.MailTransportSMTP }

// Send dials a new connection per message. Cancelling ctx stops waiting for
// the server; the dial itself finishes in the background.
func (t *SMTPTransport) Send(ctx context.Context, msg *core.EmailMessage) error {
	if !msg.HasRecipients() {
		return errNoRecipients
	}
	m := t.prepare(msg)

	done := make(chan error, 1)
	go func() { done <- t.send(m) }()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrapf(err, "smtp %s:%d", t.dialer.Host, t.dialer.Port)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SMTPTransport) prepare(msg *core.EmailMessage) *gomail.Message {
	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetAddressHeader("From", msg.From.Address, msg.From.Name)

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, m.FormatAddress(addr.Address, addr.Name))
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", msg.Subject)

	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}
	return m
}
