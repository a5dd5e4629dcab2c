package emailsvc

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archify/backend/core"
	"github.com/archify/backend/tests"
)

func TestNewTransport(t *testing.T) {
	logger := testutil.NewLogger(t)
	smtpConf := core.MailConfig{SMTPHost: "smtp.gmail.com", SMTPPort: 587, SMTPUsername: "u", SMTPPassword: "p"}

	tests := []struct {
		name     string
		conf     core.MailConfig
		wantName string // "" means nil transport
		wantErr  bool
	}{
		{name: "auto: nothing configured", conf: core.MailConfig{Transport: core.MailTransportAuto}, wantName: core.MailTransportConsole},
		{name: "auto: user without password", conf: core.MailConfig{Transport: core.MailTransportAuto, SMTPUsername: "u"}, wantName: core.MailTransportConsole},
		{name: "auto: smtp credentials", conf: withTransport(smtpConf, core.MailTransportAuto), wantName: core.MailTransportSMTP},
		{name: "auto: sendgrid key", conf: core.MailConfig{Transport: core.MailTransportAuto, SendgridAPIKey: "k"}, wantName: core.MailTransportSendgrid},
		{name: "auto: smtp wins over sendgrid", conf: func() core.MailConfig { c := withTransport(smtpConf, ""); c.SendgridAPIKey = "k"; return c }(), wantName: core.MailTransportSMTP},
		{name: "forced smtp", conf: withTransport(smtpConf, core.MailTransportSMTP), wantName: core.MailTransportSMTP},
		{name: "forced smtp without credentials", conf: core.MailConfig{Transport: core.MailTransportSMTP}, wantErr: true},
		{name: "forced sendgrid without key", conf: core.MailConfig{Transport: core.MailTransportSendgrid}, wantErr: true},
		{name: "forced console", conf: withTransport(smtpConf, core.MailTransportConsole), wantName: core.MailTransportConsole},
		{name: "none", conf: withTransport(smtpConf, core.MailTransportNone)},
		{name: "unknown", conf: core.MailConfig{Transport: "pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := NewTransport(appConfig(tt.conf), new(bytes.Buffer), logger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTransport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantName == "" {
				if transport != nil {
					t.Errorf("NewTransport() = %v; want nil", transport)
				}
				return
			}
			if transport == nil || transport.Name() != tt.wantName {
				t.Errorf("NewTransport() = %v; want %s", transport, tt.wantName)
			}
		})
	}

	_, err := NewTransport(appConfig(core.MailConfig{Transport: "pigeon"}), nil, logger)
	if errors.Cause(err) != ErrUnknownTransport {
		t.Errorf("NewTransport() error = %v; want ErrUnknownTransport", err)
	}
}

func TestNewTransport_consoleContent(t *testing.T) {
	logger := testutil.NewLogger(t)

	tests := []struct {
		name        string
		debug       bool
		logTokens   bool
		transport   string
		wantContent bool
	}{
		{name: "debug", debug: true, transport: core.MailTransportAuto, wantContent: true},
		{name: "prod: auto fallback", transport: core.MailTransportAuto},
		{name: "prod: forced console", transport: core.MailTransportConsole},
		{name: "prod: token logging enabled", logTokens: true, transport: core.MailTransportAuto, wantContent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := appConfig(core.MailConfig{Transport: tt.transport, LogResetTokens: tt.logTokens})
			conf.Env = "PROD"
			conf.Debug = tt.debug

			var out bytes.Buffer
			transport, err := NewTransport(conf, &out, logger)
			require.NoError(t, err)

			msg := testMessage()
			msg.TextContent = "Code : SECRET"
			msg.HTMLContent = `<a href="http://localhost:4200/forgot-password?token=SECRET">reset</a>`
			require.NoError(t, transport.Send(context.Background(), msg))

			assert.Contains(t, out.String(), "Subject: Bienvenue sur Archify !")
			assert.Equal(t, tt.wantContent, strings.Contains(out.String(), "SECRET"), "output: %s", out.String())
		})
	}
}

func appConfig(mailConf core.MailConfig) *core.Config {
	conf := core.NewTestConfig()
	conf.Mail = mailConf
	return conf
}

func withTransport(conf core.MailConfig, transport string) core.MailConfig {
	conf.Transport = transport
	return conf
}
