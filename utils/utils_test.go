package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2HalfEven(t *testing.T) {
	assert.Equal(t, "0.02", Round2(decimal.RequireFromString("0.025")).StringFixed(2))
	assert.Equal(t, "0.04", Round2(decimal.RequireFromString("0.035")).StringFixed(2))
	assert.Equal(t, "10.51", Round2(decimal.RequireFromString("10.5051")).StringFixed(2))
}

type createDTO struct {
	Name   string
	Amount decimal.Decimal
	Count  int
}

type patchDTO struct {
	Name   *string          `json:"name"`
	Amount *decimal.Decimal `json:"amount"`
	Note   *string          `json:"note"`
	Skip   *int             `json:"-"`
}

func TestNormalizeDTO(t *testing.T) {
	dto := createDTO{Name: "  ACME  ", Amount: decimal.RequireFromString("1.005"), Count: 3}
	NormalizeDTO(&dto)

	assert.Equal(t, "ACME", dto.Name)
	assert.Equal(t, "1.00", dto.Amount.StringFixed(2))
	assert.Equal(t, 3, dto.Count)
}

func TestNormalizePtrDTO(t *testing.T) {
	name := " Consórcio Norte "
	amount := decimal.RequireFromString("99.999")
	dto := patchDTO{Name: &name, Amount: &amount}
	NormalizePtrDTO(&dto)

	assert.Equal(t, "Consórcio Norte", *dto.Name)
	assert.Equal(t, "100.00", dto.Amount.StringFixed(2))
	assert.Nil(t, dto.Note)
}

func TestChangedColumns(t *testing.T) {
	name := "  Parceira Sul "
	amount := decimal.RequireFromString("10.005")
	skip := 1
	dto := patchDTO{Name: &name, Amount: &amount, Skip: &skip}

	updates := ChangedColumns(&dto)
	require.Len(t, updates, 2)
	assert.Equal(t, "Parceira Sul", updates["name"])
	assert.Equal(t, "10.00", updates["amount"].(decimal.Decimal).StringFixed(2))

	assert.Empty(t, ChangedColumns(dto))
	assert.Empty(t, ChangedColumns((*patchDTO)(nil)))
}

func TestQueryParsing(t *testing.T) {
	assert.Equal(t, 20, QueryInt(" 20 ", 50))
	assert.Equal(t, 50, QueryInt("abc", 50))
	assert.Equal(t, 50, QueryInt("-1", 50))

	assert.Equal(t, uint(7), QueryID("7"))
	assert.Equal(t, uint(0), QueryID(""))
	assert.Equal(t, uint(0), QueryID("-3"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)

	p, err := ParseDatePtr(nil)
	assert.NoError(t, err)
	assert.Nil(t, p)
}
