package sqlgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ConstraintError wraps a driver error already classified as a constraint
// violation, so callers that constructed one explicitly (rather than
// classifying a raw driver error) still satisfy IsConstraintError.
type ConstraintError struct {
	msg  string
	wrap error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("sqlgraph: constraint violation: %s", e.msg)
}

func (e *ConstraintError) Unwrap() error { return e.wrap }

// NewConstraintError returns a new ConstraintError wrapping err.
func NewConstraintError(msg string, wrap error) error {
	return &ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// errorCoder is implemented by database errors that expose a driver-native
// error code through a Code() string method. lib/pq's *pq.Error carries its
// code as a field instead and is handled separately in matches.
type errorCoder interface {
	Code() string
}

// errorNumberer is implemented by database errors that carry a numeric
// error code, notably mysql.MySQLError.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is implemented by database errors that expose a SQLSTATE
// code independently of errorCoder, which some MySQL drivers do.
type sqlStateError interface {
	SQLState() string
}

// constraintClass groups the three ways this module recognizes one kind of
// constraint violation across drivers: the Postgres SQLSTATE/error code
// (shared by errorCoder and sqlStateError), the MySQL numeric codes that
// can mean it, and substrings to match when a driver exposes neither.
type constraintClass struct {
	pgCode       string
	mysqlCodes   []uint16
	fallbackText []string
}

var (
	uniqueClass = constraintClass{
		pgCode:     pgUniqueViolation,
		mysqlCodes: []uint16{mysqlDuplicateEntry},
		fallbackText: []string{
			"Error 1062",                 // MySQL
			"violates unique constraint", // Postgres
			"UNIQUE constraint failed",   // SQLite
		},
	}
	foreignKeyClass = constraintClass{
		pgCode:     pgForeignKeyViolation,
		mysqlCodes: []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		fallbackText: []string{
			"Error 1451",                      // MySQL: cannot delete/update a parent row
			"Error 1452",                      // MySQL: cannot add/update a child row
			"violates foreign key constraint", // Postgres
			"FOREIGN KEY constraint failed",   // SQLite
		},
	}
	checkClass = constraintClass{
		pgCode:     pgCheckViolation,
		mysqlCodes: []uint16{mysqlCheckConstraintViolate},
		fallbackText: []string{
			"Error 3819",                // MySQL
			"violates check constraint", // Postgres
			"CHECK constraint failed",   // SQLite
		},
	}
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451
	mysqlForeignKeyChild        = 1452
	mysqlCheckConstraintViolate = 3819
)

// matches reports whether err classifies as c, trying, in order: lib/pq's
// concrete type (it doesn't implement errorCoder/sqlStateError), the
// duck-typed SQLSTATE and error-code interfaces, the MySQL numeric code,
// and finally substring matching against the error text.
func (c constraintClass) matches(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == c.pgCode
	}

	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == c.pgCode {
		return true
	}

	if e, ok := asError[errorCoder](err); ok && e.Code() == c.pgCode {
		return true
	}

	if e, ok := asError[errorNumberer](err); ok {
		for _, code := range c.mysqlCodes {
			if e.Number() == code {
				return true
			}
		}
	}

	return containsAny(err.Error(), c.fallbackText...)
}

// IsUniqueConstraintError reports if err resulted from a database
// uniqueness constraint violation, e.g. a duplicate value in a unique index.
func IsUniqueConstraintError(err error) bool { return uniqueClass.matches(err) }

// IsForeignKeyConstraintError reports if err resulted from a database
// foreign-key constraint violation, e.g. a missing parent row.
func IsForeignKeyConstraintError(err error) bool { return foreignKeyClass.matches(err) }

// IsCheckConstraintError reports if err resulted from a database check
// constraint violation, e.g. a value that fails its CHECK condition.
func IsCheckConstraintError(err error) bool { return checkClass.matches(err) }

// asError walks err's Unwrap chain for the first error implementing T.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
