// Package notify delivers transactional emails on a best-effort basis.
// Nothing in here ever fails the caller: every send resolves to an Outcome.
package notify

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/archify/backend/core"
)

// Email kinds
const (
	KindGeneric       = "generic"
	KindPasswordReset = "password_reset"
	KindWelcome       = "welcome"
)

const (
	passwordResetSubject  = "Réinitialisation de votre mot de passe - Archify"
	welcomeSubject        = "Bienvenue sur Archify !"
	passwordResetTemplate = "password_reset"
	welcomeTemplate       = "welcome"

	resetPath   = "/forgot-password"
	catalogPath = "/catalog"

	errorBodyPreviewLen = 200
)

var (
	ErrNoRecipient    = errors.New("no recipient")
	ErrNoContent      = errors.New("empty email body")
	errTransportPanic = errors.New("email transport panicked")
)

type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped" // no transport configured
	StatusFailed  Status = "failed"
)

// Message is a single outbound email. Text is derived from HTML when empty.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Outcome describes what happened to one send request.
type Outcome struct {
	Kind      string
	To        string
	Subject   string
	Transport string
	Status    Status
	Err       error
	At        time.Time
}

func (o Outcome) Delivered() bool { return o.Status == StatusSent }

// Hook observes every Outcome. Hooks run synchronously, after the send.
type Hook func(ctx context.Context, outcome Outcome)

type Option func(d *Dispatcher)

// WithHooks registers delivery hooks.
func WithHooks(hooks ...Hook) Option {
	return func(d *Dispatcher) { d.hooks = append(d.hooks, hooks...) }
}

// WithNowFunc overrides the clock used to timestamp outcomes.
func WithNowFunc(now func() time.Time) Option {
	return func(d *Dispatcher) { d.nowFunc = now }
}

// Dispatcher sends transactional emails through a transport chosen at startup.
// It is immutable once built and safe for concurrent use.
type Dispatcher struct {
	transport       core.EmailTransport // nil: not configured
	templates       *core.EmailTemplates
	logger          core.Logger
	from            mail.Address
	frontendBaseURL string
	resetTTL        time.Duration
	timeout         time.Duration
	logResetTokens  bool
	hooks           []Hook
	nowFunc         func() time.Time
}

// NewDispatcher returns a Dispatcher. A nil transport turns every send into a logged no-op.
func NewDispatcher(
	conf *core.Config,
	transport core.EmailTransport,
	templates *core.EmailTemplates,
	logger core.Logger,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		transport:       transport,
		templates:       templates,
		logger:          logger,
		from:            conf.DefaultFromEmail(),
		frontendBaseURL: conf.FrontendBaseURL,
		resetTTL:        conf.PasswordResetTimeoutDelta,
		timeout:         conf.Mail.Timeout,
		logResetTokens:  conf.Mail.LogResetTokens,
		nowFunc:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configured reports whether a transport is available.
func (d *Dispatcher) Configured() bool { return d.transport != nil }

// TransportName returns the name of the configured transport, "none" otherwise.
func (d *Dispatcher) TransportName() string {
	if d.transport == nil {
		return core.MailTransportNone
	}
	return d.transport.Name()
}

// Send delivers msg. It never returns an error: failures are logged and reported in the Outcome.
func (d *Dispatcher) Send(ctx context.Context, msg Message) Outcome {
	return d.send(ctx, KindGeneric, msg)
}

// SendPasswordReset sends the password reset email holding `token` and the reset link.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, address, token string) Outcome {
	resetURL := d.ResetURL(token)
	if d.logResetTokens {
		d.logger.Warn("password reset token (MAIL_LOG_RESET_TOKENS is on, never enable it in production)", map[string]interface{}{
			"email":      address,
			"token":      token,
			"reset_url":  resetURL,
			"expires_in": d.resetTTL.String(),
		})
	}

	data := struct {
		Token     string
		ResetURL  string
		ExpiresIn string
	}{
		Token:     token,
		ResetURL:  resetURL,
		ExpiresIn: humanizeDuration(d.resetTTL),
	}
	return d.sendTemplate(ctx, KindPasswordReset, address, passwordResetSubject, passwordResetTemplate, data)
}

// SendWelcome sends the welcome email addressed to `name` with a link to the catalog.
func (d *Dispatcher) SendWelcome(ctx context.Context, address, name string) Outcome {
	data := struct {
		Name       string
		CatalogURL string
	}{
		Name:       name,
		CatalogURL: d.frontendBaseURL + catalogPath,
	}
	return d.sendTemplate(ctx, KindWelcome, address, welcomeSubject, welcomeTemplate, data)
}

// SendTemplate renders the template `name` and sends it.
func (d *Dispatcher) SendTemplate(ctx context.Context, address, subject, name string, data interface{}) Outcome {
	return d.sendTemplate(ctx, KindGeneric, address, subject, name, data)
}

// ResetURL returns the frontend link a user follows to reset their password.
func (d *Dispatcher) ResetURL(token string) string {
	return d.frontendBaseURL + resetPath + "?token=" + url.QueryEscape(token)
}

func (d *Dispatcher) sendTemplate(ctx context.Context, kind, address, subject, name string, data interface{}) Outcome {
	if d.templates == nil {
		return d.fail(ctx, kind, Message{To: address, Subject: subject}, errors.Wrap(core.ErrTemplateNotFound, name))
	}
	html, text, err := d.templates.Render(name, data)
	if err != nil {
		return d.fail(ctx, kind, Message{To: address, Subject: subject}, errors.Wrap(err, "rendering email"))
	}
	return d.send(ctx, kind, Message{To: address, Subject: subject, HTML: html, Text: text})
}

func (d *Dispatcher) send(ctx context.Context, kind string, msg Message) Outcome {
	if d.transport == nil {
		d.logger.Info(fmt.Sprintf("email to %s not sent: no email transport configured", msg.To), map[string]interface{}{
			"to":      msg.To,
			"subject": msg.Subject,
		})
		return d.resolve(ctx, Outcome{Kind: kind, To: msg.To, Subject: msg.Subject, Status: StatusSkipped})
	}
	if msg.To == "" {
		return d.fail(ctx, kind, msg, ErrNoRecipient)
	}

	text := msg.Text
	if text == "" {
		text = core.StripHTML(msg.HTML)
	}
	em := &core.EmailMessage{
		From:        d.from,
		To:          []mail.Address{{Address: msg.To}},
		Subject:     msg.Subject,
		TextContent: text,
		HTMLContent: msg.HTML,
	}
	if !em.HasContent() {
		return d.fail(ctx, kind, msg, ErrNoContent)
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.deliver(sendCtx, em); err != nil {
		return d.fail(ctx, kind, msg, err)
	}

	d.logger.Info(fmt.Sprintf("email sent to %s", msg.To), map[string]interface{}{
		"subject":   msg.Subject,
		"transport": d.transport.Name(),
	})
	return d.resolve(ctx, Outcome{
		Kind:      kind,
		To:        msg.To,
		Subject:   msg.Subject,
		Transport: d.transport.Name(),
		Status:    StatusSent,
	})
}

// deliver calls the transport, turning a panic into an error.
func (d *Dispatcher) deliver(ctx context.Context, em *core.EmailMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errTransportPanic, "%v", r)
		}
	}()
	return d.transport.Send(ctx, em)
}

func (d *Dispatcher) fail(ctx context.Context, kind string, msg Message, err error) Outcome {
	d.logger.Error(fmt.Sprintf("sending email: %v", err), err, map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    core.Truncate(msg.HTML, errorBodyPreviewLen),
	})
	return d.resolve(ctx, Outcome{
		Kind:      kind,
		To:        msg.To,
		Subject:   msg.Subject,
		Transport: d.TransportName(),
		Status:    StatusFailed,
		Err:       err,
	})
}

func (d *Dispatcher) resolve(ctx context.Context, outcome Outcome) Outcome {
	outcome.At = d.nowFunc().UTC()
	for _, hook := range d.hooks {
		d.runHook(ctx, hook, outcome)
	}
	return outcome
}

func (d *Dispatcher) runHook(ctx context.Context, hook Hook, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(fmt.Sprintf("email delivery hook panicked: %v", r))
		}
	}()
	hook(ctx, outcome)
}

// humanizeDuration renders durations such as "1 heure" or "30 minutes".
func humanizeDuration(dur time.Duration) string {
	plural := func(n int, unit string) string {
		if n > 1 {
			return fmt.Sprintf("%d %ss", n, unit)
		}
		return fmt.Sprintf("%d %s", n, unit)
	}
	switch {
	case dur >= 24*time.Hour && dur%(24*time.Hour) == 0:
		return plural(int(dur/(24*time.Hour)), "jour")
	case dur >= time.Hour && dur%time.Hour == 0:
		return plural(int(dur/time.Hour), "heure")
	default:
		minutes := int(dur.Round(time.Minute) / time.Minute)
		if minutes < 1 {
			minutes = 1
		}
		return plural(minutes, "minute")
	}
}
