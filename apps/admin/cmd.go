package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/fixtures"
	"github.com/archify/backend/core/notify"
	"github.com/archify/backend/core/user"
	"github.com/archify/backend/storage/database/sqlx"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// Mailer sends the emails the CLI can trigger. *notify.Dispatcher satisfies it.
type Mailer interface {
	SendWelcome(ctx context.Context, address, name string) notify.Outcome
	SendPasswordReset(ctx context.Context, address, token string) notify.Outcome
	SendTemplate(ctx context.Context, address, subject, name string, data interface{}) notify.Outcome
}

// DeliveryLog lists the recorded email deliveries. *sqlxrepos.EmailLogRepository satisfies it.
type DeliveryLog interface {
	Recent(ctx context.Context, limit int) ([]sqlxrepos.EmailLog, error)
}

type commandLine struct {
	conf       *core.Config
	db         *sqlx.DB
	usrRepo    user.Repository
	fixtures   fixtures.Store
	mailer     Mailer
	deliveries DeliveryLog
	logger     core.Logger
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                - run a goose command (up, up-by-one, up-to V, down, down-to V, redo, reset, status, version, fix, create NAME [sql|go])")
	_, _ = fmt.Fprintln(cli.out, "  seed [-file PATH]                                     - load fixtures (embedded demo data by default)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME [-admin] [-welcome]    - create or update a user")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                            - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  sendmail -to EMAIL [-kind test|welcome|reset] [-name NAME] [-token TOKEN] - send one email")
	_, _ = fmt.Fprintln(cli.out, "  emaillogs [-n N]                                      - list the latest email deliveries")
}

// readPassword prompts for a password; an empty one prints the command usage.
func (cli *commandLine) readPassword(cmd *flag.FlagSet) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "", "YAML fixtures file. Defaults to the embedded demo data.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the user the admin role.")
	addUserWelcome := addUserCmd.Bool("welcome", false, "Send the welcome email.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	sendMailCmd := flag.NewFlagSet("sendmail", flag.ContinueOnError)
	sendMailTo := sendMailCmd.String("to", "", "The recipient's email.")
	sendMailKind := sendMailCmd.String("kind", "test", "One of: test, welcome, reset.")
	sendMailName := sendMailCmd.String("name", "Test", "The recipient's name (welcome).")
	sendMailToken := sendMailCmd.String("token", "TEST-TOKEN", "The reset token (reset).")

	emailLogsCmd := flag.NewFlagSet("emaillogs", flag.ContinueOnError)
	emailLogsLimit := emailLogsCmd.Int("n", 20, "Number of deliveries to list, newest first.")

	for _, cmd := range []*flag.FlagSet{seedCmd, addUserCmd, resetPasswordCmd, sendMailCmd, emailLogsCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.seed(ctx, *seedFile)
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(ctx, *addUserEmail, *addUserName, pwd, *addUserAdmin, *addUserWelcome)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)
	case "sendmail":
		if err := sendMailCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *sendMailTo == "" {
			sendMailCmd.Usage()
			return errHelp
		}
		return cli.sendMail(ctx, *sendMailKind, *sendMailTo, *sendMailName, *sendMailToken)
	case "emaillogs":
		if err := emailLogsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.emailLogs(ctx, *emailLogsLimit)
	default:
		cli.printUsage()
		return errHelp
	}
}
