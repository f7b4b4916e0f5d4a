package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrValidation marks a write rejected before reaching storage.
var ErrValidation = errors.New("validation failed")

// Invalid wraps err so that errors.Is(err, ErrValidation) holds while the
// original cause (e.g. validator.ValidationErrors) stays reachable.
func Invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// StorageError is a failed read or write, constraint violations included.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Wrap annotates err with the failed operation. Validation errors and errors
// that already are a StorageError pass through untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *StorageError
	if errors.As(err, &se) || errors.Is(err, ErrValidation) {
		return err
	}

	return &StorageError{Op: op, Err: err}
}

// IsConflict reports whether err comes from a unique constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// primary result code only
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}

	return false
}
