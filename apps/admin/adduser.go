package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, email, name, pwd string, isAdmin, welcome bool) error {
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	created := false
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{ID: uuid.NewString(), Email: email, Role: user.RoleStudent, CreatedAt: now}
		created = true
	}

	usr.Name = core.CleanString(name)
	usr.IsActive = true
	usr.UpdatedAt = now
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if created {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	if err != nil {
		return err
	}

	action := "updated"
	if created {
		action = "created"
	}
	_, _ = fmt.Fprintf(cli.out, "user %s %s (%s)\n", usr.Email, action, usr.Role)

	if welcome {
		return cli.printOutcome(cli.mailer.SendWelcome(ctx, usr.Email, usr.Name))
	}
	return nil
}
