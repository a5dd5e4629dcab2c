package main

import (
	"os"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/notify"
	appfs "github.com/archify/backend/fs"
	"github.com/archify/backend/services/email"
	"github.com/archify/backend/services/logger"
	"github.com/archify/backend/storage/database"
	"github.com/archify/backend/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.New(os.Stderr, "ADMIN", conf)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	// set up mailer
	transport, err := emailsvc.NewTransport(conf, os.Stdout, logger)
	errAndDie(err)
	templates, err := core.ParseEmailTemplates(appfs.EmailTemplates(), conf)
	errAndDie(err)
	emailLogs := sqlxrepos.NewEmailLogRepository(db)
	mailer := notify.NewDispatcher(conf, transport, templates, logger, notify.WithHooks(notify.LogHook(emailLogs, logger)))

	// start CLI
	cli := commandLine{
		conf:       conf,
		db:         db,
		usrRepo:    sqlxrepos.NewUserRepository(db),
		fixtures:   sqlxrepos.NewCatalogRepository(db),
		mailer:     mailer,
		deliveries: emailLogs,
		logger:     logger,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin: " + err.Error())
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error())
	}
}
