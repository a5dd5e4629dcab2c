package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/notify"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrInactive    = errors.New("account deactivated")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// UpsertUser inserts `usr` unless a user with the same email exists; returns the stored user.
		UpsertUser(ctx context.Context, usr User) (User, error)
	}

	// Notifier sends the account emails. *notify.Dispatcher satisfies it.
	Notifier interface {
		SendWelcome(ctx context.Context, address, name string) notify.Outcome
		SendPasswordReset(ctx context.Context, address, token string) notify.Outcome
	}

	Service struct {
		repo     Repository
		notifier Notifier
		logger   core.Logger
		tokenGen tokenGenerator
	}
)

func NewService(conf *core.Config, repo Repository, notifier Notifier, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates a student account out of an already validated NewUser and sends the welcome email.
// The registration does not depend on the email being delivered.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:           uuid.NewString(),
		Name:         nu.Name,
		Email:        nu.Email,
		Role:         RoleStudent,
		DepartmentID: nu.DepartmentID,
		Semester:     nu.Semester,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	if outcome := svc.notifier.SendWelcome(ctx, usr.Email, usr.Name); !outcome.Delivered() {
		svc.logger.Warn(fmt.Sprintf("welcome email %s for %s", outcome.Status, usr.Email), usr)
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// RequestPasswordReset issues a reset token for the active user owning `email` and emails it.
// The returned outcome tells whether the email actually went out.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) (notify.Outcome, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return notify.Outcome{}, err
	}
	if !usr.IsActive {
		return notify.Outcome{}, ErrInactive
	}
	token := svc.tokenGen.makeToken(usr)
	return svc.notifier.SendPasswordReset(ctx, usr.Email, token), nil
}

// ResetPassword sets a new password for the user designated by data.Token.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidToken := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})

	uid, err := decodeUID(data.Token)
	if err != nil {
		return invalidToken
	}
	usr, err := svc.GetByID(ctx, uid)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidToken
		}
		return err
	}
	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if tag := checkPassword(data.Password, usr.Name, usr.Email); tag != "" {
		return core.NewValidationError(errors.New("invalid password"), core.FieldError{Field: "password", Error: passwordPolicyTexts[tag]})
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}
