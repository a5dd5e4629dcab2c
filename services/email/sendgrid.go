package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/archify/backend/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendgridTransport struct {
	key  string
	host string
	api  func(req rest.Request) (*rest.Response, error) // mockable
}

var _ core.EmailTransport = (*SendgridTransport)(nil)

func NewSendgridTransport(apiKey string) *SendgridTransport {
	return &SendgridTransport{
		key:  apiKey,
		host: sendgridHost,
		api:  sendgrid.API,
	}
}

func (t *SendgridTransport) Name() string { return core.MailTransportSendgrid }

func (t *SendgridTransport) Send(ctx context.Context, msg *core.EmailMessage) error {
	if !msg.HasRecipients() {
		return errNoRecipients
	}

	req := sendgrid.GetRequest(t.key, sendgridEndpoint, t.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(t.prepare(msg))

	type result struct {
		res *rest.Response
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := t.api(req)
		done <- result{res, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return errors.Wrap(r.err, "sendgrid request")
		}
		if r.res.StatusCode >= http.StatusBadRequest {
			return errors.Errorf("sendgrid status: %d - body: %s", r.res.StatusCode, r.res.Body)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SendgridTransport) prepare(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(getSGEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(getSGEmail(msg.From))
	m.AddPersonalizations(p)

	// text/plain must come first
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}
