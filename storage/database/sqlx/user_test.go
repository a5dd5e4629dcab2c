package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archify/backend/core/user"
	"github.com/archify/backend/tests"
)

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(testutil.PrepareDB(t))
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	alice := testutil.CreateUser(t, repo, "Alice", "alice@test.ma", "Str0ng!pass", user.RoleStudent, true, created)
	bob := testutil.CreateUser(t, repo, "Bob", "bob@test.ma", "", user.RoleAdmin, false)

	t.Run("GetUser", func(t *testing.T) {
		tests := []struct {
			name    string
			filter  user.GetFilter
			wantID  string
			wantErr error
		}{
			{name: "by id", filter: user.GetFilter{ID: alice.ID}, wantID: alice.ID},
			{name: "by email", filter: user.GetFilter{Email: "bob@test.ma"}, wantID: bob.ID},
			{name: "unknown id", filter: user.GetFilter{ID: "nope"}, wantErr: user.ErrNotFound},
			{name: "unknown email", filter: user.GetFilter{Email: "nope@test.ma"}, wantErr: user.ErrNotFound},
			{name: "empty filter", wantErr: user.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				usr, err := repo.GetUser(ctx, tt.filter)
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, errors.Cause(err))
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, usr.ID)
			})
		}
	})

	t.Run("round trip", func(t *testing.T) {
		usr, err := repo.GetUser(ctx, user.GetFilter{ID: alice.ID})
		require.NoError(t, err)
		assert.Equal(t, "Alice", usr.Name)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.True(t, usr.IsActive)
		assert.True(t, created.Equal(usr.CreatedAt))
		assert.True(t, usr.LastLogin.IsZero())
		assert.Empty(t, usr.DepartmentID)
		assert.NoError(t, usr.CheckPassword("Str0ng!pass"))
	})

	t.Run("CheckEmailUniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "alice@test.ma"))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "alice@test.ma", alice))
		assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "alice@test.ma", bob))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "carol@test.ma"))
	})

	t.Run("UpdateUser", func(t *testing.T) {
		usr := bob
		usr.Name = "Robert"
		usr.IsActive = true
		usr.LastLogin = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
		_, err := repo.UpdateUser(ctx, usr)
		require.NoError(t, err)

		got, err := repo.GetUser(ctx, user.GetFilter{ID: bob.ID})
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.Name)
		assert.True(t, got.IsActive)
		assert.True(t, usr.LastLogin.Equal(got.LastLogin))

		_, err = repo.UpdateUser(ctx, user.User{ID: "nope", CreatedAt: created, UpdatedAt: created})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("UpsertUser", func(t *testing.T) {
		got, err := repo.UpsertUser(ctx, user.User{ID: "other-id", Email: "alice@test.ma", Name: "Impostor", Role: user.RoleAdmin, CreatedAt: created, UpdatedAt: created})
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, "Alice", got.Name)

		got, err = repo.UpsertUser(ctx, user.User{ID: "carol-id", Email: "carol@test.ma", Name: "Carol", Role: user.RoleStudent, IsActive: true, CreatedAt: created, UpdatedAt: created})
		require.NoError(t, err)
		assert.Equal(t, "carol-id", got.ID)
	})
}
