package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyDBError(t *testing.T) {
	assert.NoError(t, ClassifyDBError(nil))

	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505", Detail: "Key (tax_id)=(1) already exists."}, ErrDuplicate},
		{"check", &pgconn.PgError{Code: "23514", Message: "violates check constraint"}, ErrInvariant},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrInvariant},
		{"raise", &pgconn.PgError{Code: "P0001"}, ErrInvariant},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrTransient},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrTransient},
		{"connection", &pgconn.PgError{Code: "08006"}, ErrTransient},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, ClassifyDBError(tc.err), tc.kind, tc.name)
	}
}

func TestClassifyDBErrorKeepsDetail(t *testing.T) {
	err := ClassifyDBError(&pgconn.PgError{Code: "23505", Message: "duplicate key", Detail: "Key (number)=(C-1) already exists."})
	assert.Equal(t, "Key (number)=(C-1) already exists.", err.Error())
}

func TestClassifyDBErrorPassThrough(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, ClassifyDBError(plain))

	domain := violation("already classified")
	assert.Same(t, domain, ClassifyDBError(domain))

	other := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, error(other), ClassifyDBError(other))
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := notFound("contract %d not found", 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvariant)
	assert.Equal(t, "contract 7 not found", err.Error())
}
