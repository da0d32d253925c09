package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbferry/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDatabaseExists  = 1007
	errDBAccessDenied  = 1044
	errAccessDenied    = 1045
	errUnknownDatabase = 1049
	errTableExists     = 1050
	errBadFieldError   = 1054
	errParseError      = 1064
	errNoSuchTable     = 1146
	errConnRefused     = 2003
	errServerGone      = 2006
	errServerLost      = 2013
)

// mapError converts a MySQL driver error into an *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		full := fmt.Sprintf("%s: %s", msg, mysqlErr.Message)
		switch mysqlErr.Number {
		case errDatabaseExists, errTableExists:
			return errs.Wrap(errs.ErrKindSchema, full, err)
		case errAccessDenied, errDBAccessDenied:
			return errs.Wrap(errs.ErrKindPermissionDenied, full, err)
		case errUnknownDatabase, errNoSuchTable:
			return errs.Wrap(errs.ErrKindNotFound, full, err)
		case errConnRefused, errServerGone, errServerLost:
			return errs.Wrap(errs.ErrKindConnectionFailed, full, err)
		case errBadFieldError, errParseError:
			return errs.Wrap(errs.ErrKindQueryFailed, full, err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, full, err)
	}

	return errs.Wrap(errs.ErrKindUnknown, msg, err)
}
