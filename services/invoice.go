package services

import (
	"time"

	"contratos-backend/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// loadInvoice fetches an invoice whose report belongs to a contract visible to scope.
func (s *Service) loadInvoice(tx *gorm.DB, scope Scope, id uint, lock bool) (*models.Invoice, error) {
	q := tx.Joins("JOIN measurement_reports ON measurement_reports.id = invoices.report_id").
		Where("invoices.id = ?", id)
	q = scope.apply(q, "measurement_reports.contract_id")
	if lock {
		q = q.Clauses(forUpdateOf("invoices"))
	}
	var inv models.Invoice
	if err := q.First(&inv).Error; err != nil {
		return nil, lookupErr(err, "invoice %d not found", id)
	}
	return &inv, nil
}

func (s *Service) GetInvoice(tx *gorm.DB, scope Scope, id uint) (*models.Invoice, error) {
	inv, err := s.loadInvoice(tx, scope, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("invoice_id = ?", id).Order("paid_on, id").Find(&inv.Payments).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return inv, nil
}

type InvoiceFilter struct {
	ReportID   uint
	ContractID uint
	Status     models.InvoiceStatus
}

func (s *Service) ListInvoices(tx *gorm.DB, scope Scope, f InvoiceFilter, page Page) ([]models.Invoice, error) {
	q := tx.Joins("JOIN measurement_reports ON measurement_reports.id = invoices.report_id")
	q = scope.apply(q, "measurement_reports.contract_id")
	if f.ReportID != 0 {
		q = q.Where("invoices.report_id = ?", f.ReportID)
	}
	if f.ContractID != 0 {
		q = q.Where("measurement_reports.contract_id = ?", f.ContractID)
	}
	if f.Status != "" {
		q = q.Where("invoices.status = ?", f.Status)
	}
	var out []models.Invoice
	if err := page.apply(q.Order("invoices.id")).Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

type InvoiceInput struct {
	ReportID   uint
	IssuerID   uint
	ClientID   uint
	Number     *string
	GrossValue decimal.Decimal
	IssueDate  *time.Time
	DueDate    *time.Time
}

type InvoicePatch struct {
	Number     *string
	GrossValue *decimal.Decimal
	IssueDate  *time.Time
	DueDate    *time.Time
}

func checkDates(issue, due time.Time) error {
	if DateOnly(due).Before(DateOnly(issue)) {
		return violation("due date %s is before issue date %s", due.Format(time.DateOnly), issue.Format(time.DateOnly))
	}
	return nil
}

// CreateInvoice issues an invoice by hand against an APPROVED report. Issue date
// defaults to today and due date to issue date plus the configured offset.
func (s *Service) CreateInvoice(tx *gorm.DB, scope Scope, in InvoiceInput) (*models.Invoice, error) {
	r, err := s.loadReport(tx, scope, in.ReportID, true)
	if err != nil {
		return nil, err
	}
	if r.Status != models.ReportApproved {
		return nil, violation("report %d is %s, invoices need an APPROVED report", r.ID, r.Status)
	}
	if in.GrossValue.IsNegative() {
		return nil, violation("gross value must not be negative")
	}
	for _, id := range []uint{in.IssuerID, in.ClientID} {
		var n int64
		if err := tx.Model(&models.Company{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
		if n == 0 {
			return nil, notFound("company %d not found", id)
		}
	}

	issue := s.today()
	if in.IssueDate != nil {
		issue = DateOnly(*in.IssueDate)
	}
	due := issue.AddDate(0, 0, s.DueDays)
	if in.DueDate != nil {
		due = DateOnly(*in.DueDate)
	}
	if err := checkDates(issue, due); err != nil {
		return nil, err
	}

	inv := models.Invoice{
		ReportID:   r.ID,
		Number:     trimmed(in.Number),
		IssuerID:   in.IssuerID,
		ClientID:   in.ClientID,
		GrossValue: in.GrossValue,
		IssueDate:  issue,
		DueDate:    due,
		Status:     models.InvoicePending,
	}
	rates, err := s.ResolveRates(tx, r.ContractID)
	if err != nil {
		return nil, err
	}
	ApplyWithholding(&inv, rates)
	inv.Status = InvoiceStatusFor(inv.Status, decimal.Zero, inv.NetValue, inv.DueDate, s.today())
	if err := tx.Create(&inv).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	s.Log.WithFields(logrus.Fields{"invoice_id": inv.ID, "report_id": r.ID, "net": inv.NetValue.StringFixed(2)}).Info("invoice issued")
	return &inv, nil
}

// UpdateInvoice edits an open invoice. A gross change recomputes taxes and net with the
// contract's current rates; a net below what was already paid is refused.
func (s *Service) UpdateInvoice(tx *gorm.DB, scope Scope, id uint, p InvoicePatch) (*models.Invoice, error) {
	inv, err := s.loadInvoice(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoicePaid || inv.Status == models.InvoiceCancelled {
		return nil, violation("invoice %d is %s and cannot be edited", id, inv.Status)
	}

	if p.Number != nil {
		inv.Number = trimmed(p.Number)
	}
	if p.IssueDate != nil {
		inv.IssueDate = DateOnly(*p.IssueDate)
	}
	if p.DueDate != nil {
		inv.DueDate = DateOnly(*p.DueDate)
	}
	if err := checkDates(inv.IssueDate, inv.DueDate); err != nil {
		return nil, err
	}
	if p.GrossValue != nil {
		if p.GrossValue.IsNegative() {
			return nil, violation("gross value must not be negative")
		}
		inv.GrossValue = *p.GrossValue
		if err := s.CalculateInvoice(tx, inv); err != nil {
			return nil, err
		}
		paid, err := s.PaidTotal(tx, inv.ID, 0)
		if err != nil {
			return nil, err
		}
		if inv.NetValue.LessThan(paid) {
			return nil, violation("new net value %s is below the %s already paid", inv.NetValue.StringFixed(2), paid.StringFixed(2))
		}
	}

	err = tx.Model(&models.Invoice{}).Where("id = ?", id).Updates(map[string]any{
		"number":          inv.Number,
		"issue_date":      inv.IssueDate,
		"due_date":        inv.DueDate,
		"gross_value":     inv.GrossValue,
		"iss_withheld":    inv.ISSWithheld,
		"inss_withheld":   inv.INSSWithheld,
		"irrf_withheld":   inv.IRRFWithheld,
		"csll_withheld":   inv.CSLLWithheld,
		"pis_withheld":    inv.PISWithheld,
		"cofins_withheld": inv.COFINSWithheld,
		"net_value":       inv.NetValue,
		"updated_at":      s.Now(),
	}).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	if err := s.Reconcile(tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CancelInvoice marks an invoice CANCELLED. Paid invoices cannot be cancelled.
func (s *Service) CancelInvoice(tx *gorm.DB, scope Scope, id uint) (*models.Invoice, error) {
	inv, err := s.loadInvoice(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case models.InvoicePaid:
		return nil, violation("invoice %d is PAID and cannot be cancelled", id)
	case models.InvoiceCancelled:
		return nil, violation("invoice %d is already CANCELLED", id)
	}
	err = tx.Model(&models.Invoice{}).Where("id = ?", id).
		Updates(map[string]any{"status": models.InvoiceCancelled, "updated_at": s.Now()}).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	s.Log.WithField("invoice_id", id).Info("invoice cancelled")
	inv.Status = models.InvoiceCancelled
	return inv, nil
}

// DeleteInvoice removes an invoice that has no payments on record.
func (s *Service) DeleteInvoice(tx *gorm.DB, scope Scope, id uint) error {
	if _, err := s.loadInvoice(tx, scope, id, true); err != nil {
		return err
	}
	var n int64
	if err := tx.Model(&models.Payment{}).Where("invoice_id = ?", id).Count(&n).Error; err != nil {
		return ClassifyDBError(err)
	}
	if n > 0 {
		return violation("invoice %d has payments and cannot be deleted", id)
	}
	if err := tx.Delete(&models.Invoice{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	return nil
}
