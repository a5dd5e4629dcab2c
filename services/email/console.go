package emailsvc

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/archify/backend/core"
)

// ConsoleTransport is the sandbox transport: it writes the MIME message to `out`
// instead of delivering it, and keeps a copy of every message it got.
type ConsoleTransport struct {
	out         io.Writer // nil: no output
	hideContent bool      // only headers are written

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailTransport = (*ConsoleTransport)(nil)

// ConsoleOption configures a ConsoleTransport.
type ConsoleOption func(t *ConsoleTransport)

// WithHiddenContent writes the headers only: message bodies may carry secrets such as reset tokens.
func WithHiddenContent() ConsoleOption {
	return func(t *ConsoleTransport) { t.hideContent = true }
}

func NewConsoleTransport(out io.Writer, opts ...ConsoleOption) *ConsoleTransport {
	t := &ConsoleTransport{out: out}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ConsoleTransport) Name() string { return core.MailTransportConsole }

func (t *ConsoleTransport) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !msg.HasRecipients() {
		return errNoRecipients
	}

	if t.out != nil {
		body, err := t.render(*msg)
		if err != nil {
			return err
		}
		t.mu.Lock()
		_, err = io.WriteString(t.out, body)
		t.mu.Unlock()
		if err != nil {
			return errors.Wrap(err, "writing email")
		}
	}

	t.mu.Lock()
	t.sent = append(t.sent, *msg)
	t.mu.Unlock()
	return nil
}

// SentMessages returns a copy of the messages sent so far.
func (t *ConsoleTransport) SentMessages() []core.EmailMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := make([]core.EmailMessage, len(t.sent))
	copy(msgs, t.sent)
	return msgs
}

func (t *ConsoleTransport) render(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", msg.From.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", msg.Recipients())

	if t.hideContent {
		_, _ = fmt.Fprintf(body, "X-Content-Hidden: %d bytes text, %d bytes html\r\n\r\n", len(msg.TextContent), len(msg.HTMLContent))
		return body.String(), nil
	}

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n", altW.Boundary())
	_, _ = fmt.Fprint(body, "\r\n")

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return "", errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
		if err != nil {
			return "", errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}

	if err := altW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart writer")
	}
	return body.String() + "\r\n", nil
}
