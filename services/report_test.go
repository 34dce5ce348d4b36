package services

import (
	"errors"
	"testing"

	"contratos-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovedAmount(t *testing.T) {
	assert.Equal(t, "45000.00", ApprovedAmount(dec("50000.00"), dec("5000.00")).StringFixed(2))
	assert.Equal(t, "0.00", ApprovedAmount(dec("10.00"), dec("10.00")).StringFixed(2))
}

func TestValidateFigures(t *testing.T) {
	start, end := date(2024, 1, 1), date(2024, 1, 31)

	require.NoError(t, ValidateFigures(start, end, dec("100"), dec("0")))
	require.NoError(t, ValidateFigures(start, start, dec("100"), dec("100")))

	cases := map[string]error{
		"end before start":   ValidateFigures(end, start, dec("100"), dec("0")),
		"negative measured":  ValidateFigures(start, end, dec("-1"), dec("0")),
		"negative deduction": ValidateFigures(start, end, dec("100"), dec("-1")),
		"deduction too big":  ValidateFigures(start, end, dec("100"), dec("100.01")),
	}
	for name, err := range cases {
		assert.ErrorIs(t, err, ErrInvariant, name)
	}
}

func TestCheckTransition(t *testing.T) {
	reason := "measured twice"
	blank := "  "

	allowed := []struct {
		from, to models.ReportStatus
		reason   *string
	}{
		{models.ReportDraft, models.ReportApproved, nil},
		{models.ReportApproved, models.ReportInvoiced, nil},
		{models.ReportDraft, models.ReportCancelled, &reason},
		{models.ReportApproved, models.ReportCancelled, &reason},
	}
	for _, tc := range allowed {
		assert.NoError(t, CheckTransition(tc.from, tc.to, tc.reason), "%s -> %s", tc.from, tc.to)
	}

	refused := []struct {
		from, to models.ReportStatus
		reason   *string
	}{
		{models.ReportDraft, models.ReportInvoiced, nil},
		{models.ReportApproved, models.ReportApproved, nil},
		{models.ReportApproved, models.ReportDraft, nil},
		{models.ReportInvoiced, models.ReportCancelled, &reason},
		{models.ReportInvoiced, models.ReportApproved, nil},
		{models.ReportCancelled, models.ReportApproved, nil},
		{models.ReportDraft, models.ReportCancelled, nil},
		{models.ReportDraft, models.ReportCancelled, &blank},
		{models.ReportDraft, models.ReportStatus("ARCHIVED"), nil},
	}
	for _, tc := range refused {
		err := CheckTransition(tc.from, tc.to, tc.reason)
		assert.True(t, errors.Is(err, ErrInvariant), "%s -> %s should be refused", tc.from, tc.to)
	}
}

func TestReportPatchTouchesFigures(t *testing.T) {
	status := models.ReportApproved
	assert.False(t, ReportPatch{Status: &status}.touchesFigures())

	m := dec("1")
	assert.True(t, ReportPatch{MeasuredAmount: &m}.touchesFigures())
}

func TestCheckDeletable(t *testing.T) {
	assert.NoError(t, CheckDeletable(1, models.ReportDraft, 0))
	assert.NoError(t, CheckDeletable(1, models.ReportApproved, 0))
	assert.NoError(t, CheckDeletable(1, models.ReportCancelled, 0))

	assert.ErrorIs(t, CheckDeletable(1, models.ReportInvoiced, 0), ErrInvariant)
	assert.ErrorIs(t, CheckDeletable(1, models.ReportApproved, 2), ErrInvariant)
	assert.ErrorIs(t, CheckDeletable(1, models.ReportCancelled, 1), ErrInvariant)
}
