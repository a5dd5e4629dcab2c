package main

import (
	"context"

	"github.com/archify/backend/storage/database"
)

var gooseRunFunc = database.RunGoose // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	return gooseRunFunc(ctx, cli.db, cli.conf.Database.Engine, args[0], args[1:]...)
}
