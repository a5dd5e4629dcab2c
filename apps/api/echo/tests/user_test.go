package tests

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/archify/backend/apps/api/echo"
	"github.com/archify/backend/core/user"
	"github.com/archify/backend/tests"
)

const resetRequestedMsg = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

var resetCodeRe = regexp.MustCompile(`Code de réinitialisation : (\S+)`)

func Test_registerUser(t *testing.T) {
	app := setup(t)

	newUser := user.NewUser{
		Name:            "Jane Doe",
		Email:           "jane@archify.ma",
		Password:        "S3cr3t.Passw0rd",
		PasswordConfirm: "S3cr3t.Passw0rd",
		Semester:        "S1",
	}
	dup := newUser
	dup.Email = "  STUDENT@archify.ma "
	mismatch := newUser
	mismatch.Email = "other@archify.ma"
	mismatch.PasswordConfirm = "lol"

	tests := []httpTest{
		{name: "empty body", method: http.MethodPost, path: "/v1/users/register", body: []byte("{}"), wantCode: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/v1/users/register", body: []byte("{"), wantCode: http.StatusBadRequest},
		{
			name: "password mismatch", method: http.MethodPost, path: "/v1/users/register", body: marchallObj(t, mismatch),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/users/register", body: marchallObj(t, dup),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{name: "valid", method: http.MethodPost, path: "/v1/users/register", body: marchallObj(t, newUser), wantCode: http.StatusCreated},
	}
	runTests(t, app, tests)

	usr, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{Email: "jane@archify.ma"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("S3cr3t.Passw0rd"))

	msgs := app.transport.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jane@archify.ma", msgs[0].To[0].Address)
}

func Test_passwordReset(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, app.usrRepo, "Inactive", "inactive@archify.ma", "p4ssw0rd.x", user.RoleStudent, false)

	success := marchallObj(t, SuccessResponse{Success: resetRequestedMsg})
	tests := []httpTest{
		{name: "invalid email", method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{"email": "lol"}`), wantCode: http.StatusBadRequest},
		{name: "unknown email", method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{"email": "nobody@archify.ma"}`), wantData: success},
		{name: "inactive user", method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{"email": "inactive@archify.ma"}`), wantData: success},
		{name: "active user", method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{"email": "Student@Archify.ma"}`), wantData: success},
	}
	runTests(t, app, tests)

	msgs := app.transport.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "student@archify.ma", msgs[0].To[0].Address)
	m := resetCodeRe.FindStringSubmatch(msgs[0].TextContent)
	require.Len(t, m, 2)
	token := m[1]
	assert.Contains(t, msgs[0].HTMLContent, token)

	confirm := func(token, pwd string) []byte {
		return marchallObj(t, user.ResetUserPassword{Token: token, Password: pwd, PasswordConfirm: pwd})
	}
	invalidToken := marchallObj(t, map[string]string{"token": "invalid token"})
	tests = []httpTest{
		{
			name: "garbage token", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm("lol", "N3w.Passw0rd!"),
			wantCode: http.StatusBadRequest, wantData: invalidToken,
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm(token, "12345678"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "valid", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm(token, "N3w.Passw0rd!"),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token already used", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm(token, "An0ther.Passw0rd!"),
			wantCode: http.StatusBadRequest, wantData: invalidToken,
		},
	}
	runTests(t, app, tests)

	usr, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{Email: "student@archify.ma"})
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("N3w.Passw0rd!"))
}
