package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/archify/backend/apps/api/echo"
	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
	"github.com/archify/backend/core/notify"
	"github.com/archify/backend/core/user"
	appfs "github.com/archify/backend/fs"
	emailsvc "github.com/archify/backend/services/email"
	logsvc "github.com/archify/backend/services/logger"
	"github.com/archify/backend/storage/database"
	sqlxrepos "github.com/archify/backend/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	UserSvc    *user.Service
	CatalogSvc *catalog.Service
	Validate   *validator.Validate
	Translator ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.New(os.Stdout, "API", conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.New(os.Stdout, "DB", conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(context.Background(), db, conf.Database.Engine); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

// newEmailTransport fails when a forced transport is misconfigured, which stops the app at startup.
func newEmailTransport(conf *core.Config, logger core.Logger) (core.EmailTransport, error) {
	return emailsvc.NewTransport(conf, os.Stdout, logger)
}

func newEmailTemplates(conf *core.Config) (*core.EmailTemplates, error) {
	return core.ParseEmailTemplates(appfs.EmailTemplates(), conf)
}

func newDispatcher(
	conf *core.Config,
	transport core.EmailTransport,
	templates *core.EmailTemplates,
	logger core.Logger,
	emailLogs *sqlxrepos.EmailLogRepository,
) *notify.Dispatcher {
	return notify.NewDispatcher(conf, transport, templates, logger, notify.WithHooks(notify.LogHook(emailLogs, logger)))
}

func newUserService(conf *core.Config, repo user.Repository, dispatcher *notify.Dispatcher, logger core.Logger) *user.Service {
	return user.NewService(conf, repo, dispatcher, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		UserSvc:    p.UserSvc,
		CatalogSvc: p.CatalogSvc,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailTransport))
	must(c.Provide(newEmailTemplates))
	must(c.Provide(sqlxrepos.NewEmailLogRepository))
	must(c.Provide(newDispatcher))
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewCatalogRepository, dig.As(new(catalog.Repository))))
	must(c.Provide(newUserService))
	must(c.Provide(catalog.NewService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
