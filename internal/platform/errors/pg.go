package errors

// Postgres helpers for the run ledger: map pgx errors to ErrorCode and decide retries

import (
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the ledger cares about
const (
	pgErrUniqueViolation    = "23505"
	pgErrNotNullViolation   = "23502"
	pgErrCheckViolation     = "23514"
	pgErrUndefinedTable     = "42P01"
	pgErrInsufficientPriv   = "42501"
	pgErrInvalidPassword    = "28P01"
	pgErrSerialization      = "40001"
	pgErrDeadlockDetected   = "40P01"
	pgErrLockNotAvailable   = "55P03"
	pgErrReadOnlySQLTx      = "25006"
	pgErrCannotConnectNow   = "57P03" // startup in progress
	pgErrAdminShutdown      = "57P01"
	pgErrTooManyConnections = "53300"
)

// ExtractPgError returns (*pgconn.PgError, true) if the chain holds a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsUndefinedTable reports whether the ledger schema has not been applied
func IsUndefinedTable(err error) bool { return IsSQLState(err, pgErrUndefinedTable) }

// DBErrorCode maps a Postgres error to an ErrorCode with an ok flag
// !ok means err wasn't a PgError; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case pgErrNotNullViolation, pgErrCheckViolation:
		return ErrorCodeValidation, true
	case pgErrInsufficientPriv, pgErrInvalidPassword:
		return ErrorCodeUnauthorized, true
	case pgErrReadOnlySQLTx, pgErrCannotConnectNow, pgErrAdminShutdown, pgErrTooManyConnections:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode and message
// If err is nil, returns nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, _ := DBErrorCode(err)
	if code == ErrorCodeUnknown {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// IsRetryable reports whether a database error represents a transient condition
// It handles structured *pgconn.PgError codes and the generic pgx text seen on commit
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case pgErrSerialization, pgErrDeadlockDetected, pgErrLockNotAvailable, pgErrCannotConnectNow:
			return true
		default:
			return false
		}
	}

	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "commit unexpectedly resulted in rollback"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "canceling statement due to lock timeout"),
		strings.Contains(s, "terminating connection due to administrator command"):
		return true
	default:
		return false
	}
}
