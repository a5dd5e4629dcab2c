package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/archify/backend/core/notify"
)

var errUnknownKind = errors.New("unknown email kind")

func (cli *commandLine) sendMail(ctx context.Context, kind, to, name, token string) error {
	var outcome notify.Outcome
	switch kind {
	case "test":
		subject := fmt.Sprintf("Test - %s", cli.conf.AppName)
		outcome = cli.mailer.SendTemplate(ctx, to, subject, "test", map[string]string{"Env": cli.conf.Env})
	case "welcome":
		outcome = cli.mailer.SendWelcome(ctx, to, name)
	case "reset":
		outcome = cli.mailer.SendPasswordReset(ctx, to, token)
	default:
		return errors.Wrapf(errUnknownKind, "%q", kind)
	}
	return cli.printOutcome(outcome)
}

// printOutcome prints the delivery outcome; a failed delivery is an error.
func (cli *commandLine) printOutcome(outcome notify.Outcome) error {
	var errText string
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}
	transport := outcome.Transport
	if transport == "" {
		transport = "-"
	}
	cli.printTable(
		[]string{"Kind", "To", "Subject", "Transport", "Status", "Error"},
		[][]string{{outcome.Kind, outcome.To, outcome.Subject, transport, string(outcome.Status), errText}},
		nil,
	)
	if outcome.Status == notify.StatusFailed {
		return errors.Wrap(outcome.Err, "sending email")
	}
	return nil
}
