package emailsvc

import (
	"io"

	"github.com/pkg/errors"

	"github.com/archify/backend/core"
)

var (
	errNoRecipients = errors.New("email has no recipients")

	ErrUnknownTransport = errors.New("unknown email transport")
)

// NewTransport picks the transport described by conf.Mail.
//
// In "auto" mode SMTP credentials win over a SendGrid API key; with neither,
// messages go to the console transport (written to `console`) so nothing leaves the machine.
// The console only prints message bodies in debug mode or with MAIL_LOG_RESET_TOKENS set.
// "none" returns a nil transport: the dispatcher then only logs what it would have sent.
func NewTransport(appConf *core.Config, console io.Writer, logger core.Logger) (core.EmailTransport, error) {
	conf := appConf.Mail
	var consoleOpts []ConsoleOption
	if !appConf.Debug && !conf.LogResetTokens {
		consoleOpts = append(consoleOpts, WithHiddenContent())
	}

	switch conf.Transport {
	case core.MailTransportNone:
		logger.Warn("email transport disabled: emails will only be logged")
		return nil, nil
	case core.MailTransportSMTP:
		if !conf.HasSMTPCredentials() {
			return nil, errors.New("smtp transport requires SMTP_USER and SMTP_PASS")
		}
		return NewSMTPTransport(conf), nil
	case core.MailTransportSendgrid:
		if conf.SendgridAPIKey == "" {
			return nil, errors.New("sendgrid transport requires SENDGRID_API_KEY")
		}
		return NewSendgridTransport(conf.SendgridAPIKey), nil
	case core.MailTransportConsole:
		return NewConsoleTransport(console, consoleOpts...), nil
	case core.MailTransportAuto, "":
		switch {
		case conf.HasSMTPCredentials():
			logger.Info("email transport: smtp", map[string]interface{}{"host": conf.SMTPHost, "port": conf.SMTPPort})
			return NewSMTPTransport(conf), nil
		case conf.SendgridAPIKey != "":
			logger.Info("email transport: sendgrid")
			return NewSendgridTransport(conf.SendgridAPIKey), nil
		default:
			logger.Warn("email transport: console (emails are printed, not delivered). " +
				"Set SMTP_USER and SMTP_PASS (or SENDGRID_API_KEY) to enable real delivery")
			return NewConsoleTransport(console, consoleOpts...), nil
		}
	default:
		return nil, errors.Wrap(ErrUnknownTransport, conf.Transport)
	}
}
