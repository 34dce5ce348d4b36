package services

import (
	"encoding/json"

	"contratos-backend/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Share is the slice of an approved amount that falls to one participant.
type Share struct {
	CompanyID  uint            `json:"company_id"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	InvoiceID  uint            `json:"invoice_id,omitempty"`
	Skipped    bool            `json:"skipped"`
}

// ComputeShares splits approved by participant percentage, each rounded half-even to cents.
// The returned remainder is approved minus the sum of the rounded shares; it is not
// assigned to anyone.
func ComputeShares(approved decimal.Decimal, participants []models.Participant) ([]Share, decimal.Decimal) {
	shares := make([]Share, 0, len(participants))
	sum := decimal.Zero
	for _, p := range participants {
		amount := approved.Mul(p.Share).Shift(-2).RoundBank(2)
		sum = sum.Add(amount)
		shares = append(shares, Share{CompanyID: p.CompanyID, Percentage: p.Share, Amount: amount})
	}
	return shares, approved.Sub(sum)
}

type ApportionResult struct {
	Invoices []models.Invoice       `json:"invoices"`
	Run      models.ApportionmentRun `json:"run"`
}

// Apportion issues one invoice per participant of the report's contract, from issuer to
// the participant, for its share of the approved amount. Participants that already hold
// an invoice for this report and issuer are skipped, so repeated calls create nothing new.
// Either every new invoice is written or none is.
func (s *Service) Apportion(tx *gorm.DB, scope Scope, reportID, issuerID uint) (*ApportionResult, error) {
	var result *ApportionResult
	err := tx.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.apportion(tx, scope, reportID, issuerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) apportion(tx *gorm.DB, scope Scope, reportID, issuerID uint) (*ApportionResult, error) {
	r, err := s.loadReport(tx, scope, reportID, true)
	if err != nil {
		return nil, err
	}
	if r.Status != models.ReportApproved {
		return nil, violation("report %d is %s, only APPROVED reports can be apportioned", reportID, r.Status)
	}
	c, err := s.loadContract(tx, FullScope, r.ContractID, false)
	if err != nil {
		return nil, err
	}
	if !c.SharesValue() {
		return nil, violation("contract %d is %s and has nothing to apportion", c.ID, c.Kind)
	}
	participants, err := s.participants(tx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, violation("contract %d has no participants", c.ID)
	}
	var issuer models.Company
	if err := tx.First(&issuer, issuerID).Error; err != nil {
		return nil, lookupErr(err, "issuer company %d not found", issuerID)
	}
	if !r.ApprovedAmount.IsPositive() {
		return nil, violation("report %d has no approved amount to apportion", reportID)
	}

	rates, err := s.ResolveRates(tx, c.ID)
	if err != nil {
		return nil, err
	}

	var existing []models.Invoice
	if err := tx.Select("id", "client_id").
		Where("report_id = ? AND issuer_id = ?", reportID, issuerID).
		Find(&existing).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	issued := make(map[uint]uint, len(existing))
	for _, inv := range existing {
		issued[inv.ClientID] = inv.ID
	}

	shares, remainder := ComputeShares(r.ApprovedAmount, participants)
	issue := s.today()
	due := issue.AddDate(0, 0, s.DueDays)
	created := make([]models.Invoice, 0, len(shares))
	skipped := 0
	for i := range shares {
		if id, ok := issued[shares[i].CompanyID]; ok {
			shares[i].Skipped = true
			shares[i].InvoiceID = id
			skipped++
			continue
		}
		inv := models.Invoice{
			ReportID:   reportID,
			IssuerID:   issuerID,
			ClientID:   shares[i].CompanyID,
			GrossValue: shares[i].Amount,
			IssueDate:  issue,
			DueDate:    due,
			Status:     models.InvoicePending,
		}
		ApplyWithholding(&inv, rates)
		if err := tx.Create(&inv).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
		shares[i].InvoiceID = inv.ID
		created = append(created, inv)
	}

	blob, err := json.Marshal(shares)
	if err != nil {
		return nil, err
	}
	run := models.ApportionmentRun{
		ReportID:     reportID,
		IssuerID:     issuerID,
		CreatedCount: len(created),
		SkippedCount: skipped,
		Remainder:    remainder,
		Shares:       datatypes.JSON(blob),
	}
	if err := tx.Create(&run).Error; err != nil {
		return nil, ClassifyDBError(err)
	}

	entry := s.Log.WithFields(logrus.Fields{
		"report_id": reportID,
		"issuer_id": issuerID,
		"created":   len(created),
		"skipped":   skipped,
	})
	if !remainder.IsZero() {
		entry = entry.WithField("remainder", remainder.StringFixed(2))
	}
	entry.Info("report apportioned")

	return &ApportionResult{Invoices: created, Run: run}, nil
}

// ListApportionmentRuns returns the apportionment history of a report, oldest first.
func (s *Service) ListApportionmentRuns(tx *gorm.DB, scope Scope, reportID uint) ([]models.ApportionmentRun, error) {
	if _, err := s.loadReport(tx, scope, reportID, false); err != nil {
		return nil, err
	}
	var out []models.ApportionmentRun
	if err := tx.Where("report_id = ?", reportID).Order("id").Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}
