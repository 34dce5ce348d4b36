package services

import (
	"errors"
	"time"

	"contratos-backend/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvoiceStatusFor derives an invoice status from what has been paid. CANCELLED is sticky.
func InvoiceStatusFor(current models.InvoiceStatus, paid, net decimal.Decimal, due, today time.Time) models.InvoiceStatus {
	switch {
	case current == models.InvoiceCancelled:
		return models.InvoiceCancelled
	case paid.GreaterThanOrEqual(net):
		return models.InvoicePaid
	case paid.IsPositive():
		return models.InvoicePartial
	case DateOnly(due).Before(DateOnly(today)):
		return models.InvoiceOverdue
	default:
		return models.InvoicePending
	}
}

// PaidTotal sums the non-reversed payments of an invoice, optionally leaving one out.
func (s *Service) PaidTotal(tx *gorm.DB, invoiceID, excludePaymentID uint) (decimal.Decimal, error) {
	q := tx.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("invoice_id = ? AND reversed = ?", invoiceID, false)
	if excludePaymentID != 0 {
		q = q.Where("id <> ?", excludePaymentID)
	}
	var total decimal.Decimal
	if err := q.Scan(&total).Error; err != nil {
		return decimal.Zero, ClassifyDBError(err)
	}
	return total, nil
}

// Reconcile recomputes an invoice's status from its payments and persists it when it changed.
func (s *Service) Reconcile(tx *gorm.DB, inv *models.Invoice) error {
	paid, err := s.PaidTotal(tx, inv.ID, 0)
	if err != nil {
		return err
	}
	status := InvoiceStatusFor(inv.Status, paid, inv.NetValue, inv.DueDate, s.today())
	if status == inv.Status {
		return nil
	}
	err = tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).
		Updates(map[string]any{"status": status, "updated_at": s.Now()}).Error
	if err != nil {
		return ClassifyDBError(err)
	}
	s.Log.WithFields(logrus.Fields{
		"invoice_id": inv.ID,
		"from":       inv.Status,
		"to":         status,
		"paid":       paid.StringFixed(2),
	}).Info("invoice reconciled")
	inv.Status = status
	return nil
}

// ReconcileInvoice locks and reconciles a single invoice.
func (s *Service) ReconcileInvoice(tx *gorm.DB, scope Scope, invoiceID uint) (*models.Invoice, error) {
	inv, err := s.loadInvoice(tx, scope, invoiceID, true)
	if err != nil {
		return nil, err
	}
	if err := s.Reconcile(tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// MarkOverdue reconciles every open invoice whose due date has passed and returns how many changed.
func (s *Service) MarkOverdue(tx *gorm.DB) (int, error) {
	var open []models.Invoice
	err := tx.Clauses(forUpdate()).
		Where("status = ? AND due_date < ?", models.InvoicePending, s.today()).
		Order("id").Find(&open).Error
	if err != nil {
		return 0, ClassifyDBError(err)
	}
	changed := 0
	for i := range open {
		before := open[i].Status
		if err := s.Reconcile(tx, &open[i]); err != nil {
			return changed, err
		}
		if open[i].Status != before {
			changed++
		}
	}
	return changed, nil
}

type PaymentInput struct {
	PaidOn time.Time
	Amount decimal.Decimal
	Notes  *string
}

type PaymentPatch struct {
	PaidOn *time.Time
	Amount *decimal.Decimal
	Notes  *string
}

func (s *Service) checkPaymentFits(tx *gorm.DB, inv *models.Invoice, amount decimal.Decimal, excludePaymentID uint) error {
	if !amount.IsPositive() {
		return violation("payment amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return violation("payment amount has more than two decimals")
	}
	paid, err := s.PaidTotal(tx, inv.ID, excludePaymentID)
	if err != nil {
		return err
	}
	if paid.Add(amount).GreaterThan(inv.NetValue) {
		return violation("payments would total %s, above the invoice net value %s",
			paid.Add(amount).StringFixed(2), inv.NetValue.StringFixed(2))
	}
	return nil
}

// checkInvoiceOpen refuses payment changes on a CANCELLED invoice.
func checkInvoiceOpen(inv *models.Invoice) error {
	if inv.Status == models.InvoiceCancelled {
		return violation("invoice %d is CANCELLED and its payments cannot change", inv.ID)
	}
	return nil
}

// CreatePayment records a payment and reconciles its invoice in the same transaction.
func (s *Service) CreatePayment(tx *gorm.DB, scope Scope, invoiceID uint, in PaymentInput) (*models.Payment, error) {
	inv, err := s.loadInvoice(tx, scope, invoiceID, true)
	if err != nil {
		return nil, err
	}
	if err := checkInvoiceOpen(inv); err != nil {
		return nil, err
	}
	if err := s.checkPaymentFits(tx, inv, in.Amount, 0); err != nil {
		return nil, err
	}
	p := models.Payment{
		InvoiceID: invoiceID,
		PaidOn:    DateOnly(in.PaidOn),
		Amount:    in.Amount,
		Notes:     in.Notes,
	}
	if err := tx.Create(&p).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	if err := s.Reconcile(tx, inv); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) loadPayment(tx *gorm.DB, scope Scope, id uint, lock bool) (*models.Payment, *models.Invoice, error) {
	var p models.Payment
	if err := tx.First(&p, id).Error; err != nil {
		return nil, nil, lookupErr(err, "payment %d not found", id)
	}
	inv, err := s.loadInvoice(tx, scope, p.InvoiceID, lock)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, notFound("payment %d not found", id)
		}
		return nil, nil, err
	}
	return &p, inv, nil
}

func (s *Service) GetPayment(tx *gorm.DB, scope Scope, id uint) (*models.Payment, error) {
	p, _, err := s.loadPayment(tx, scope, id, false)
	return p, err
}

func (s *Service) ListPayments(tx *gorm.DB, scope Scope, invoiceID uint) ([]models.Payment, error) {
	if _, err := s.loadInvoice(tx, scope, invoiceID, false); err != nil {
		return nil, err
	}
	var out []models.Payment
	if err := tx.Where("invoice_id = ?", invoiceID).Order("paid_on, id").Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

func (s *Service) UpdatePayment(tx *gorm.DB, scope Scope, id uint, patch PaymentPatch) (*models.Payment, error) {
	p, inv, err := s.loadPayment(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	if err := checkInvoiceOpen(inv); err != nil {
		return nil, err
	}
	if p.Reversed {
		return nil, violation("payment %d is reversed and cannot be edited", id)
	}
	updates := map[string]any{}
	if patch.Amount != nil {
		if err := s.checkPaymentFits(tx, inv, *patch.Amount, p.ID); err != nil {
			return nil, err
		}
		p.Amount = *patch.Amount
		updates["amount"] = p.Amount
	}
	if patch.PaidOn != nil {
		p.PaidOn = DateOnly(*patch.PaidOn)
		updates["paid_on"] = p.PaidOn
	}
	if patch.Notes != nil {
		p.Notes = patch.Notes
		updates["notes"] = *patch.Notes
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := tx.Model(&models.Payment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	if err := s.Reconcile(tx, inv); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeletePayment(tx *gorm.DB, scope Scope, id uint) error {
	_, inv, err := s.loadPayment(tx, scope, id, true)
	if err != nil {
		return err
	}
	if err := checkInvoiceOpen(inv); err != nil {
		return err
	}
	if err := tx.Delete(&models.Payment{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	return s.Reconcile(tx, inv)
}

// ReversePayment keeps the payment on record but stops counting it towards the invoice.
func (s *Service) ReversePayment(tx *gorm.DB, scope Scope, id uint) (*models.Payment, error) {
	p, inv, err := s.loadPayment(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	if p.Reversed {
		return nil, violation("payment %d is already reversed", id)
	}
	now := s.Now()
	err = tx.Model(&models.Payment{}).Where("id = ?", id).
		Updates(map[string]any{"reversed": true, "reversed_at": now}).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	p.Reversed = true
	p.ReversedAt = &now
	if err := s.Reconcile(tx, inv); err != nil {
		return nil, err
	}
	return p, nil
}

// AttachReceipt records the object key of an uploaded receipt on a payment.
func (s *Service) AttachReceipt(tx *gorm.DB, scope Scope, id uint, key string) (*models.Payment, error) {
	p, _, err := s.loadPayment(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Payment{}).Where("id = ?", id).Update("receipt_key", key).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	p.ReceiptKey = &key
	return p, nil
}
