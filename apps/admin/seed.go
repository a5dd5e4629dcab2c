package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/archify/backend/core/fixtures"
)

func (cli *commandLine) seed(ctx context.Context, path string) error {
	var (
		data *fixtures.Data
		err  error
	)
	if path != "" {
		data, err = fixtures.ReadFile(path)
	} else {
		data, err = fixtures.DemoData()
	}
	if err != nil {
		return err
	}

	loader := fixtures.NewLoader(cli.fixtures, cli.usrRepo, cli.logger)
	sum, err := loader.Load(ctx, data)
	if err != nil {
		return errors.Wrap(err, "seeding database")
	}

	rows := make([][]string, 0, len(sum.Rows()))
	for _, r := range sum.Rows() {
		rows = append(rows, []string{fmt.Sprint(r[0]), fmt.Sprint(r[1])})
	}
	cli.printTable([]string{"Entity", "Rows"}, rows, []columnAlignment{alignLeft, alignRight})

	if len(sum.Accounts) > 0 {
		accounts := make([][]string, 0, len(sum.Accounts))
		for _, acc := range sum.Accounts {
			accounts = append(accounts, []string{acc.Email, acc.Password, acc.Role})
		}
		cli.printTable([]string{"Email", "Password", "Role"}, accounts, nil)
	}
	return nil
}
