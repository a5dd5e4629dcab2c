package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/user"
)

const userColumns = "id, email, name, password_hash, role, department_id, semester, is_active, created_at, updated_at, last_login"

type userRow struct {
	ID           string      `db:"id"`
	Email        string      `db:"email"`
	Name         string      `db:"name"`
	PasswordHash string      `db:"password_hash"`
	Role         string      `db:"role"`
	DepartmentID null.String `db:"department_id"`
	Semester     string      `db:"semester"`
	IsActive     bool        `db:"is_active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Email:        usr.Email,
		Name:         usr.Name,
		PasswordHash: string(usr.PasswordHash),
		Role:         usr.Role,
		DepartmentID: null.NewString(usr.DepartmentID, usr.DepartmentID != ""),
		Semester:     usr.Semester,
		IsActive:     usr.IsActive,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: []byte(row.PasswordHash),
		Role:         row.Role,
		DepartmentID: row.DepartmentID.String,
		Semester:     row.Semester,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

// trapNoRowsErr maps "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return wrapErr(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := "SELECT COUNT(*) FROM users WHERE email = ?"
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		q, args, err = sqlx.In(q+" AND id NOT IN (?)", email, ids)
		if err != nil {
			return wrapErr(err, "checking user uniqueness")
		}
	}

	var count int
	if err := sqlx.GetContext(ctx, repo.exec, &count, repo.exec.Rebind(q), args...); err != nil {
		return wrapErr(err, "checking user uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	q := "INSERT INTO users (" + userColumns + ") VALUES (" + namedParams(userColumns) + ")"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return user.User{}, wrapErr(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		where, arg = "id = ?", filter.ID
	case filter.Email != "":
		where, arg = "email = ?", filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := repo.exec.Rebind("SELECT " + userColumns + " FROM users WHERE " + where)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	q := `UPDATE users SET
		email = :email, name = :name, password_hash = :password_hash, role = :role, department_id = :department_id,
		semester = :semester, is_active = :is_active, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, row)
	if err != nil {
		return user.User{}, wrapErr(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpsertUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	q := "INSERT INTO users (" + userColumns + ") VALUES (" + namedParams(userColumns) + ") ON CONFLICT (email) DO NOTHING"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return user.User{}, wrapErr(err, "upserting user")
	}
	return repo.GetUser(ctx, user.GetFilter{Email: usr.Email})
}

// namedParams turns "a, b" into ":a, :b".
func namedParams(columns string) string {
	cols := strings.Split(columns, ", ")
	for i, col := range cols {
		cols[i] = ":" + col
	}
	return strings.Join(cols, ", ")
}
