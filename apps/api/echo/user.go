package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/notify"
	"github.com/archify/backend/core/user"
)

const passwordResetRequested = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

// UserService is satisfied by *user.Service.
type UserService interface {
	Register(ctx context.Context, nu user.NewUser) (user.User, error)
	RequestPasswordReset(ctx context.Context, email string) (notify.Outcome, error)
	ResetPassword(ctx context.Context, data user.ResetUserPassword) error
}

type SuccessResponse struct {
	Success string `json:"success"`
}

type userApi struct {
	svc      UserService
	logger   core.Logger
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, svc UserService, logger core.Logger, validate *validator.Validate) {
	api := userApi{
		svc:      svc,
		logger:   logger,
		validate: validate,
	}

	ug := g.Group("/users")
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	ug.POST("/register", api.register)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data user.PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	outcome, err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	switch cause := errors.Cause(err); {
	case cause == nil:
		if !outcome.Delivered() {
			api.logger.Warn(fmt.Sprintf("password reset email %s for %s", outcome.Status, data.Email))
		}
	case cause == user.ErrNotFound || cause == user.ErrInactive: // do not tell attackers
	default:
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: passwordResetRequested})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
