package services

import (
	"encoding/json"
	"strings"
	"time"

	"contratos-backend/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApprovedAmount is the measured amount minus the deduction.
func ApprovedAmount(measured, deduction decimal.Decimal) decimal.Decimal {
	return measured.Sub(deduction).Round(2)
}

// ValidateFigures checks the period and amounts of a report before they are stored.
func ValidateFigures(periodStart, periodEnd time.Time, measured, deduction decimal.Decimal) error {
	if DateOnly(periodEnd).Before(DateOnly(periodStart)) {
		return violation("period end %s is before period start %s",
			periodEnd.Format(time.DateOnly), periodStart.Format(time.DateOnly))
	}
	if measured.IsNegative() {
		return violation("measured amount must not be negative")
	}
	if deduction.IsNegative() {
		return violation("deduction amount must not be negative")
	}
	if deduction.GreaterThan(measured) {
		return violation("deduction %s exceeds measured amount %s", deduction.StringFixed(2), measured.StringFixed(2))
	}
	return nil
}

// CheckTransition validates a report status change. INVOICED and CANCELLED are terminal;
// cancelling requires a non-empty reason.
func CheckTransition(from, to models.ReportStatus, reason *string) error {
	if from == to {
		return violation("report is already %s", from)
	}
	switch from {
	case models.ReportInvoiced:
		return violation("report is INVOICED and can no longer change")
	case models.ReportCancelled:
		return violation("report is CANCELLED and can no longer change")
	}
	switch to {
	case models.ReportApproved:
		if from != models.ReportDraft {
			return violation("only DRAFT reports can be approved")
		}
	case models.ReportInvoiced:
		if from != models.ReportApproved {
			return violation("only APPROVED reports can be marked INVOICED")
		}
	case models.ReportCancelled:
		if reason == nil || strings.TrimSpace(*reason) == "" {
			return violation("a cancellation reason is required")
		}
	case models.ReportDraft:
		return violation("a report cannot return to DRAFT")
	default:
		return violation("unknown report status %q", to)
	}
	return nil
}

type ReportInput struct {
	PeriodStart     time.Time
	PeriodEnd       time.Time
	MeasuredAmount  decimal.Decimal
	DeductionAmount decimal.Decimal
}

// ReportPatch holds a partial update. Status changes go through the same
// transition rules as the dedicated approve/cancel/invoiced operations.
type ReportPatch struct {
	PeriodStart        *time.Time
	PeriodEnd          *time.Time
	MeasuredAmount     *decimal.Decimal
	DeductionAmount    *decimal.Decimal
	Status             *models.ReportStatus
	CancellationReason *string
}

func (p ReportPatch) touchesFigures() bool {
	return p.PeriodStart != nil || p.PeriodEnd != nil || p.MeasuredAmount != nil || p.DeductionAmount != nil
}

// CreateReport stores a DRAFT report with the next sequence number of its contract.
// The contract row is locked so concurrent creations are serialized.
func (s *Service) CreateReport(tx *gorm.DB, scope Scope, contractID uint, in ReportInput) (*models.MeasurementReport, error) {
	if _, err := s.loadContract(tx, scope, contractID, true); err != nil {
		return nil, err
	}
	measured, deduction := in.MeasuredAmount.Round(2), in.DeductionAmount.Round(2)
	if err := ValidateFigures(in.PeriodStart, in.PeriodEnd, measured, deduction); err != nil {
		return nil, err
	}

	var next int
	err := tx.Model(&models.MeasurementReport{}).
		Select("COALESCE(MAX(sequence_number), 0) + 1").
		Where("contract_id = ?", contractID).
		Scan(&next).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}

	r := models.MeasurementReport{
		ContractID:      contractID,
		SequenceNumber:  next,
		PeriodStart:     DateOnly(in.PeriodStart),
		PeriodEnd:       DateOnly(in.PeriodEnd),
		MeasuredAmount:  measured,
		DeductionAmount: deduction,
		ApprovedAmount:  ApprovedAmount(measured, deduction),
		Status:          models.ReportDraft,
	}
	if err := tx.Create(&r).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	s.Log.WithFields(logrus.Fields{"contract_id": contractID, "report_id": r.ID, "sequence": next}).Info("measurement report created")
	return &r, nil
}

func (s *Service) loadReport(tx *gorm.DB, scope Scope, id uint, lock bool) (*models.MeasurementReport, error) {
	q := tx
	if lock {
		q = q.Clauses(forUpdate())
	}
	var r models.MeasurementReport
	if err := q.First(&r, id).Error; err != nil {
		return nil, lookupErr(err, "measurement report %d not found", id)
	}
	if !scope.Allows(r.ContractID) {
		return nil, notFound("measurement report %d not found", id)
	}
	return &r, nil
}

func (s *Service) GetReport(tx *gorm.DB, scope Scope, id uint) (*models.MeasurementReport, error) {
	r, err := s.loadReport(tx, scope, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("report_id = ?", id).Order("id").Find(&r.Invoices).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return r, nil
}

// ListReports returns the reports of a contract in sequence order.
func (s *Service) ListReports(tx *gorm.DB, scope Scope, contractID uint, status models.ReportStatus) ([]models.MeasurementReport, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	q := tx.Where("contract_id = ?", contractID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.MeasurementReport
	if err := q.Order("sequence_number").Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

// UpdateReport edits the figures and/or status of a report. INVOICED and CANCELLED
// reports refuse every change.
func (s *Service) UpdateReport(tx *gorm.DB, scope Scope, id uint, p ReportPatch) (*models.MeasurementReport, error) {
	r, err := s.loadReport(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	switch r.Status {
	case models.ReportInvoiced:
		return nil, violation("report %d is INVOICED and locked", id)
	case models.ReportCancelled:
		return nil, violation("report %d is CANCELLED and locked", id)
	}
	if p.CancellationReason != nil && (p.Status == nil || *p.Status != models.ReportCancelled) {
		return nil, violation("a cancellation reason is only accepted when cancelling")
	}

	if p.touchesFigures() {
		if p.PeriodStart != nil {
			r.PeriodStart = DateOnly(*p.PeriodStart)
		}
		if p.PeriodEnd != nil {
			r.PeriodEnd = DateOnly(*p.PeriodEnd)
		}
		if p.MeasuredAmount != nil {
			r.MeasuredAmount = p.MeasuredAmount.Round(2)
		}
		if p.DeductionAmount != nil {
			r.DeductionAmount = p.DeductionAmount.Round(2)
		}
		if err := ValidateFigures(r.PeriodStart, r.PeriodEnd, r.MeasuredAmount, r.DeductionAmount); err != nil {
			return nil, err
		}
		r.ApprovedAmount = ApprovedAmount(r.MeasuredAmount, r.DeductionAmount)
		err := tx.Model(&models.MeasurementReport{}).Where("id = ?", id).Updates(map[string]any{
			"period_start":     r.PeriodStart,
			"period_end":       r.PeriodEnd,
			"measured_amount":  r.MeasuredAmount,
			"deduction_amount": r.DeductionAmount,
			"approved_amount":  r.ApprovedAmount,
			"updated_at":       s.Now(),
		}).Error
		if err != nil {
			return nil, ClassifyDBError(err)
		}
	}

	if p.Status != nil && *p.Status != r.Status {
		if err := s.transition(tx, r, *p.Status, p.CancellationReason); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (s *Service) ApproveReport(tx *gorm.DB, scope Scope, id uint) (*models.MeasurementReport, error) {
	r, err := s.loadReport(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.transition(tx, r, models.ReportApproved, nil); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) CancelReport(tx *gorm.DB, scope Scope, id uint, reason string) (*models.MeasurementReport, error) {
	r, err := s.loadReport(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.transition(tx, r, models.ReportCancelled, &reason); err != nil {
		return nil, err
	}
	return r, nil
}

// MarkInvoiced moves an APPROVED report to INVOICED and stores a snapshot of it.
// At least one non-cancelled invoice must exist.
func (s *Service) MarkInvoiced(tx *gorm.DB, scope Scope, id uint) (*models.MeasurementReport, error) {
	r, err := s.loadReport(tx, scope, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.transition(tx, r, models.ReportInvoiced, nil); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) transition(tx *gorm.DB, r *models.MeasurementReport, to models.ReportStatus, reason *string) error {
	if err := CheckTransition(r.Status, to, reason); err != nil {
		return err
	}
	updates := map[string]any{"status": to, "updated_at": s.Now()}
	if to == models.ReportCancelled {
		why := strings.TrimSpace(*reason)
		updates["cancellation_reason"] = why
		r.CancellationReason = &why
	}
	if to == models.ReportInvoiced {
		if err := s.snapshotReport(tx, r); err != nil {
			return err
		}
	}
	if err := tx.Model(&models.MeasurementReport{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
		return ClassifyDBError(err)
	}
	s.Log.WithFields(logrus.Fields{"report_id": r.ID, "from": r.Status, "to": to}).Info("measurement report status changed")
	r.Status = to
	return nil
}

func (s *Service) snapshotReport(tx *gorm.DB, r *models.MeasurementReport) error {
	var invoices []models.Invoice
	err := tx.Where("report_id = ? AND status <> ?", r.ID, models.InvoiceCancelled).
		Order("id").Find(&invoices).Error
	if err != nil {
		return ClassifyDBError(err)
	}
	if len(invoices) == 0 {
		return violation("report %d has no active invoice and cannot be marked INVOICED", r.ID)
	}
	frozen := *r
	frozen.Status = models.ReportInvoiced
	frozen.Invoices = invoices
	blob, err := json.Marshal(frozen)
	if err != nil {
		return err
	}
	snap := models.ReportSnapshot{ReportID: r.ID, Snapshot: datatypes.JSON(blob)}
	if err := tx.Create(&snap).Error; err != nil {
		return ClassifyDBError(err)
	}
	return nil
}

// CheckDeletable refuses deleting an INVOICED report or one with linked invoices.
// Linked invoices must be removed first, never orphaned.
func CheckDeletable(id uint, status models.ReportStatus, invoices int64) error {
	if status == models.ReportInvoiced {
		return violation("report %d is INVOICED and cannot be deleted", id)
	}
	if invoices > 0 {
		return violation("report %d has invoices and cannot be deleted", id)
	}
	return nil
}

// DeleteReport removes a report that is not INVOICED and has no invoices.
func (s *Service) DeleteReport(tx *gorm.DB, scope Scope, id uint) error {
	r, err := s.loadReport(tx, scope, id, true)
	if err != nil {
		return err
	}
	var n int64
	if err := tx.Model(&models.Invoice{}).Where("report_id = ?", id).Count(&n).Error; err != nil {
		return ClassifyDBError(err)
	}
	if err := CheckDeletable(id, r.Status, n); err != nil {
		return err
	}
	if err := tx.Delete(&models.MeasurementReport{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	return nil
}

func (s *Service) GetReportSnapshot(tx *gorm.DB, scope Scope, reportID uint) (*models.ReportSnapshot, error) {
	if _, err := s.loadReport(tx, scope, reportID, false); err != nil {
		return nil, err
	}
	var snap models.ReportSnapshot
	if err := tx.Where("report_id = ?", reportID).First(&snap).Error; err != nil {
		return nil, lookupErr(err, "report %d has no snapshot", reportID)
	}
	return &snap, nil
}
