package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/pkg/errors"

	"github.com/archify/backend/core"
)

// wrapErr wraps err with msg. A lost database connection becomes a shutdown error so the
// API stops instead of answering 500s forever.
func wrapErr(err error, msg string) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return core.NewShutdownError(fmt.Sprintf("%s: database connection lost: %v", msg, err))
	}
	return errors.Wrap(err, msg)
}
