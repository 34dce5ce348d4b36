package services

import (
	"testing"

	"contratos-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestValidPolicyKind(t *testing.T) {
	assert.True(t, validPolicyKind(models.PolicyPerformanceBond))
	assert.True(t, validPolicyKind(models.PolicyEngineeringRisk))
	assert.True(t, validPolicyKind(models.PolicyCivilLiability))
	assert.False(t, validPolicyKind(models.PolicyKind("LIFE")))
}

func TestCheckPolicyValue(t *testing.T) {
	assert.NoError(t, checkPolicyValue(nil))
	v := dec("150000.00")
	assert.NoError(t, checkPolicyValue(&v))

	negative := dec("-1.00")
	assert.ErrorIs(t, checkPolicyValue(&negative), ErrInvariant)
	fraction := dec("10.005")
	assert.ErrorIs(t, checkPolicyValue(&fraction), ErrInvariant)
}
