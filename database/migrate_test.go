package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSQL(t *testing.T) {
	stmt := check{"payments", "chk_payments_amount_positive", "amount > 0"}.sql()

	assert.Contains(t, stmt, "conrelid = 'payments'::regclass")
	assert.Contains(t, stmt, "conname  = 'chk_payments_amount_positive'")
	assert.Contains(t, stmt, "ALTER TABLE payments")
	assert.Contains(t, stmt, "CHECK (amount > 0);")
}

func TestCheckNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range checks {
		assert.False(t, seen[c.name], c.name)
		seen[c.name] = true
	}
}
