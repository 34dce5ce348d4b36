package services

import (
	"testing"
	"time"

	"contratos-backend/models"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProjectTermWithoutAmendments(t *testing.T) {
	end, total := ProjectTerm(date(2024, 1, 1), 365, 0, dec("1000000.00"), dec("0"))

	assert.Equal(t, date(2024, 12, 31), end)
	assert.Equal(t, "1000000.00", total.StringFixed(2))
}

func TestProjectTermWithAmendments(t *testing.T) {
	// +90 days/+200,000.00 then -30 days/-50,000.00
	end, total := ProjectTerm(date(2024, 1, 1), 365, 90-30, dec("1000000.00"), dec("200000.00").Add(dec("-50000.00")))

	assert.Equal(t, date(2025, 3, 1), end)
	assert.Equal(t, "1150000.00", total.StringFixed(2))
}

func TestProjectTermCanGoNegative(t *testing.T) {
	end, total := ProjectTerm(date(2024, 3, 1), 10, -40, dec("100.00"), dec("-250.00"))

	assert.True(t, end.Before(date(2024, 3, 1)))
	assert.Equal(t, "-150.00", total.StringFixed(2))

	c := models.Contract{StartDate: date(2024, 3, 1), ProjectedEndDate: end, TotalValue: total}
	c.RefreshWarnings()
	assert.ElementsMatch(t, []string{models.WarningNegativeTotal, models.WarningEndBeforeStart}, c.Warnings)
}

func TestRefreshWarningsClean(t *testing.T) {
	c := models.Contract{StartDate: date(2024, 1, 1), ProjectedEndDate: date(2024, 12, 31), TotalValue: dec("10")}
	c.RefreshWarnings()
	assert.Empty(t, c.Warnings)
}

func TestScopeAllows(t *testing.T) {
	assert.True(t, FullScope.Allows(42))

	sc := Scope{ContractIDs: []uint{1, 3}}
	assert.True(t, sc.Allows(3))
	assert.False(t, sc.Allows(2))
	assert.False(t, Scope{}.Allows(1))
}

func TestTrimmed(t *testing.T) {
	blank := "   "
	v := " A-01 "
	assert.Nil(t, trimmed(nil))
	assert.Nil(t, trimmed(&blank))
	assert.Equal(t, "A-01", *trimmed(&v))
}
