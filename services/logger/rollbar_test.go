package logsvc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/user"
)

func TestRollbarLogger(t *testing.T) {
	conf := core.NewTestConfig()
	var out bytes.Buffer
	logger := New(&out, "TEST", conf)

	usr := user.User{ID: "u-1", Name: "Alice", Email: "alice@test.ma"}
	logger.Info("hello", map[string]interface{}{"k": "v"})
	logger.Error("sending email: boom", errors.New("boom"), usr)

	got := out.String()
	for _, want := range []string{
		"TEST : ",
		"INFO: hello",
		"map[k:v]",
		"ERROR: sending email: boom",
		"boom",
		"user{id: u-1, email: alice@test.ma}",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q is missing %q", got, want)
		}
	}
}
