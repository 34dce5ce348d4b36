package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrNotFound  = errors.New("not found")
	ErrInvariant = errors.New("invariant violation")
	ErrDuplicate = errors.New("duplicate key")
	ErrTransient = errors.New("transient failure")
)

// DomainError carries a caller-facing message together with its kind.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func notFound(format string, args ...any) error {
	return &DomainError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func violation(format string, args ...any) error {
	return &DomainError{Kind: ErrInvariant, Message: fmt.Sprintf(format, args...)}
}

func duplicate(format string, args ...any) error {
	return &DomainError{Kind: ErrDuplicate, Message: fmt.Sprintf(format, args...)}
}

// ClassifyDBError maps driver and ORM errors onto the domain error kinds.
// Errors that are already classified, and unknown errors, are returned unchanged.
func ClassifyDBError(err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &DomainError{Kind: ErrNotFound, Message: "record not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			msg := pgErr.Message
			if pgErr.Detail != "" {
				msg = pgErr.Detail
			}
			return &DomainError{Kind: ErrDuplicate, Message: msg}
		case "23514", "23503", "23502", "P0001":
			return &DomainError{Kind: ErrInvariant, Message: pgErr.Message}
		case "40001", "40P01", "55P03", "57014":
			return &DomainError{Kind: ErrTransient, Message: pgErr.Message}
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return &DomainError{Kind: ErrTransient, Message: pgErr.Message}
		}
		return err
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return &DomainError{Kind: ErrTransient, Message: err.Error()}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &DomainError{Kind: ErrTransient, Message: "database unavailable"}
	}
	return err
}

// lookupErr reports a missing row with a specific message and classifies anything else.
func lookupErr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(format, args...)
	}
	return ClassifyDBError(err)
}
