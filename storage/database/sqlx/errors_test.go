package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/archify/backend/core"
)

func Test_wrapErr(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantShutdown bool
	}{
		{name: "bad conn", err: driver.ErrBadConn, wantShutdown: true},
		{name: "conn done", err: sql.ErrConnDone, wantShutdown: true},
		{name: "wrapped conn done", err: errors.Wrap(sql.ErrConnDone, "ping"), wantShutdown: true},
		{name: "no rows", err: sql.ErrNoRows},
		{name: "other", err: errors.New("UNIQUE constraint failed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapErr(tt.err, "querying courses")
			assert.Equal(t, tt.wantShutdown, core.IsShutdown(err))
			assert.Contains(t, err.Error(), "querying courses")
			if !tt.wantShutdown {
				assert.Equal(t, tt.err, errors.Cause(err))
			}
		})
	}
}
