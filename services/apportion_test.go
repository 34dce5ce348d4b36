package services

import (
	"testing"

	"contratos-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSharesSixtyForty(t *testing.T) {
	participants := []models.Participant{
		{CompanyID: 10, Share: dec("60.00"), IsLeader: true},
		{CompanyID: 20, Share: dec("40.00")},
	}
	shares, remainder := ComputeShares(dec("118000.00"), participants)

	require.Len(t, shares, 2)
	assert.Equal(t, uint(10), shares[0].CompanyID)
	assert.Equal(t, "70800.00", shares[0].Amount.StringFixed(2))
	assert.Equal(t, uint(20), shares[1].CompanyID)
	assert.Equal(t, "47200.00", shares[1].Amount.StringFixed(2))
	assert.True(t, remainder.IsZero())
}

func TestComputeSharesLeavesRemainder(t *testing.T) {
	participants := []models.Participant{
		{CompanyID: 1, Share: dec("33.34"), IsLeader: true},
		{CompanyID: 2, Share: dec("33.33")},
		{CompanyID: 3, Share: dec("33.33")},
	}
	shares, remainder := ComputeShares(dec("100.01"), participants)

	// 33.343334 -> 33.34, 33.333333 -> 33.33 twice
	assert.Equal(t, "33.34", shares[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", shares[1].Amount.StringFixed(2))
	assert.Equal(t, "33.33", shares[2].Amount.StringFixed(2))
	assert.Equal(t, "0.01", remainder.StringFixed(2))
}

func TestComputeSharesThenWithholding(t *testing.T) {
	participants := []models.Participant{
		{CompanyID: 10, Share: dec("60.00"), IsLeader: true},
		{CompanyID: 20, Share: dec("40.00")},
	}
	shares, _ := ComputeShares(dec("118000.00"), participants)

	inv := &models.Invoice{GrossValue: shares[0].Amount}
	ApplyWithholding(inv, MergeRates(nil, DefaultTaxDefaults()))

	assert.Equal(t, "460.20", inv.PISWithheld.StringFixed(2))
	assert.Equal(t, "15682.20", inv.TotalWithheld().StringFixed(2))
	assert.Equal(t, "55117.80", inv.NetValue.StringFixed(2))
}
