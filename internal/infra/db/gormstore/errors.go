package gormstore

import (
	"context"
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"innkeep/internal/domain/shared/storerr"
)

// pgSQLErr is satisfied by pgconn.PgError without importing the driver
// into every store.
type pgSQLErr interface {
	SQLState() string
	Error() string
}

// translate maps driver failures onto the storage error taxonomy the
// application layer classifies on. scope labels the resource the
// operation was acting on, used when the exclusion constraint fires.
func translate(err error, scope string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storerr.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &storerr.TransientError{Err: err}
	}
	var pgErr pgSQLErr
	if errors.As(err, &pgErr) {
		switch pgErr.SQLState() {
		case "23P01":
			return &storerr.RangeExclusionError{Scope: scope}
		case "23503":
			return &storerr.ForeignKeyError{Constraint: scope}
		case "23505":
			return &storerr.DuplicateError{Constraint: scope}
		case "40001", "40P01", "55P03", "57014":
			return &storerr.TransientError{Err: err}
		}
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &storerr.DuplicateError{Constraint: scope}
		case sqlite3.ErrConstraintForeignKey:
			return &storerr.ForeignKeyError{Constraint: scope}
		}
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return &storerr.TransientError{Err: err}
		}
	}
	return err
}
