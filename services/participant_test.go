package services

import (
	"testing"

	"contratos-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateSharesAccepts(t *testing.T) {
	assert.NoError(t, ValidateShares(nil))
	assert.NoError(t, ValidateShares([]ParticipantInput{
		{CompanyID: 1, Share: dec("60.00"), IsLeader: true},
		{CompanyID: 2, Share: dec("40.00")},
	}))
	assert.NoError(t, ValidateShares([]ParticipantInput{
		{CompanyID: 1, Share: dec("33.34"), IsLeader: true},
		{CompanyID: 2, Share: dec("33.33")},
		{CompanyID: 3, Share: dec("33.33")},
	}))
}

func TestValidateSharesRefuses(t *testing.T) {
	cases := map[string][]ParticipantInput{
		"sum below 100": {
			{CompanyID: 1, Share: dec("60.00"), IsLeader: true},
			{CompanyID: 2, Share: dec("30.00")},
		},
		"sum of 99.99": {
			{CompanyID: 1, Share: dec("60.00"), IsLeader: true},
			{CompanyID: 2, Share: dec("39.99")},
		},
		"sum above 100": {
			{CompanyID: 1, Share: dec("60.00"), IsLeader: true},
			{CompanyID: 2, Share: dec("40.01")},
		},
		"no leader": {
			{CompanyID: 1, Share: dec("50")},
			{CompanyID: 2, Share: dec("50")},
		},
		"two leaders": {
			{CompanyID: 1, Share: dec("50"), IsLeader: true},
			{CompanyID: 2, Share: dec("50"), IsLeader: true},
		},
		"duplicate company": {
			{CompanyID: 1, Share: dec("50"), IsLeader: true},
			{CompanyID: 1, Share: dec("50")},
		},
		"share out of range": {
			{CompanyID: 1, Share: dec("120"), IsLeader: true},
			{CompanyID: 2, Share: dec("-20")},
		},
		"three decimals": {
			{CompanyID: 1, Share: dec("50.005"), IsLeader: true},
			{CompanyID: 2, Share: dec("49.995")},
		},
		"missing company": {
			{CompanyID: 0, Share: dec("100"), IsLeader: true},
		},
	}
	for name, list := range cases {
		assert.ErrorIs(t, ValidateShares(list), ErrInvariant, name)
	}
}

func TestEligibleParticipant(t *testing.T) {
	assert.True(t, eligibleParticipant(models.ContractConsortium, models.CompanyHeadquarters, true))
	assert.True(t, eligibleParticipant(models.ContractConsortium, models.CompanyConsortiumMember, true))
	assert.True(t, eligibleParticipant(models.ContractConsortium, models.CompanyConsortiumMember, false))
	assert.False(t, eligibleParticipant(models.ContractConsortium, models.CompanySCP, false))
	assert.False(t, eligibleParticipant(models.ContractConsortium, models.CompanyClient, true))

	assert.True(t, eligibleParticipant(models.ContractPartnership, models.CompanySCP, false))
	assert.False(t, eligibleParticipant(models.ContractPartnership, models.CompanySCP, true))

	assert.False(t, eligibleParticipant(models.ContractSole, models.CompanyHeadquarters, true))
}
