package services

import (
	"testing"
	"time"

	"contratos-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusForPaymentSequence(t *testing.T) {
	net := dec("78850.00")
	due := date(2024, 6, 30)
	today := date(2024, 6, 1)

	status := InvoiceStatusFor(models.InvoicePending, dec("0"), net, due, today)
	assert.Equal(t, models.InvoicePending, status)

	status = InvoiceStatusFor(status, dec("50000.00"), net, due, today)
	assert.Equal(t, models.InvoicePartial, status)

	status = InvoiceStatusFor(status, dec("78850.00"), net, due, today)
	assert.Equal(t, models.InvoicePaid, status)
}

func TestInvoiceStatusForOverdue(t *testing.T) {
	net := dec("1000.00")
	due := date(2024, 6, 30)

	assert.Equal(t, models.InvoicePending, InvoiceStatusFor(models.InvoicePending, dec("0"), net, due, date(2024, 6, 30)))
	assert.Equal(t, models.InvoiceOverdue, InvoiceStatusFor(models.InvoicePending, dec("0"), net, due, date(2024, 7, 1)))
	// a partial payment wins over the due date
	assert.Equal(t, models.InvoicePartial, InvoiceStatusFor(models.InvoiceOverdue, dec("1"), net, due, date(2024, 7, 1)))
}

func TestInvoiceStatusForReversalReopens(t *testing.T) {
	net := dec("1000.00")
	due := date(2024, 6, 30)

	assert.Equal(t, models.InvoicePending, InvoiceStatusFor(models.InvoicePaid, dec("0"), net, due, date(2024, 6, 1)))
	assert.Equal(t, models.InvoiceOverdue, InvoiceStatusFor(models.InvoicePartial, dec("0"), net, due, date(2024, 8, 1)))
}

func TestInvoiceStatusForCancelledIsSticky(t *testing.T) {
	assert.Equal(t, models.InvoiceCancelled,
		InvoiceStatusFor(models.InvoiceCancelled, dec("1000.00"), dec("1000.00"), date(2024, 6, 30), date(2024, 6, 1)))
}

func TestDateOnly(t *testing.T) {
	ts := date(2024, 2, 29).Add(23*time.Hour + 59*time.Minute)
	assert.Equal(t, date(2024, 2, 29), DateOnly(ts))
}

func TestCheckInvoiceOpen(t *testing.T) {
	for _, st := range []models.InvoiceStatus{models.InvoicePending, models.InvoicePartial, models.InvoicePaid, models.InvoiceOverdue} {
		assert.NoError(t, checkInvoiceOpen(&models.Invoice{ID: 1, Status: st}), st)
	}
	assert.ErrorIs(t, checkInvoiceOpen(&models.Invoice{ID: 1, Status: models.InvoiceCancelled}), ErrInvariant)
}
