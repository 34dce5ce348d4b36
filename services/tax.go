package services

import (
	"contratos-backend/models"
	"contratos-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rates maps every tax kind to a percentage.
type Rates map[models.TaxKind]decimal.Decimal

// MergeRates returns the effective rate of every tax kind: the contract override
// when one exists, the default otherwise. Override bases are ignored; all taxes
// are computed on the gross value.
func MergeRates(overrides []models.TaxRateOverride, defaults TaxDefaults) Rates {
	rates := make(Rates, len(models.TaxKinds))
	for _, kind := range models.TaxKinds {
		rates[kind] = defaults[kind]
	}
	for _, o := range overrides {
		if o.Kind.Valid() {
			rates[o.Kind] = o.Rate
		}
	}
	return rates
}

// ApplyWithholding sets each withheld amount to gross × rate / 100 rounded half-even
// to cents, and the net value to gross minus their sum.
func ApplyWithholding(inv *models.Invoice, rates Rates) {
	gross := utils.Round2(inv.GrossValue)
	inv.GrossValue = gross
	for _, kind := range models.TaxKinds {
		inv.SetWithheld(kind, gross.Mul(rates[kind]).Shift(-2).RoundBank(2))
	}
	inv.NetValue = gross.Sub(inv.TotalWithheld())
}

// ResolveRates returns the effective rates for one contract.
func (s *Service) ResolveRates(tx *gorm.DB, contractID uint) (Rates, error) {
	var overrides []models.TaxRateOverride
	if err := tx.Where("contract_id = ?", contractID).Find(&overrides).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return MergeRates(overrides, s.Taxes), nil
}

// CalculateInvoice recomputes withheld amounts and net value from the rates of the
// contract behind the invoice's report. Nothing is persisted.
func (s *Service) CalculateInvoice(tx *gorm.DB, inv *models.Invoice) error {
	var report models.MeasurementReport
	if err := tx.Select("id", "contract_id").First(&report, inv.ReportID).Error; err != nil {
		return lookupErr(err, "measurement report %d not found", inv.ReportID)
	}
	rates, err := s.ResolveRates(tx, report.ContractID)
	if err != nil {
		return err
	}
	ApplyWithholding(inv, rates)
	return nil
}

type TaxOverrideInput struct {
	Kind models.TaxKind
	Rate decimal.Decimal
	Base models.TaxBase
}

// ReplaceTaxOverrides swaps the full set of overrides of a contract.
// Existing invoices are not recalculated.
func (s *Service) ReplaceTaxOverrides(tx *gorm.DB, scope Scope, contractID uint, in []TaxOverrideInput) ([]models.TaxRateOverride, error) {
	if _, err := s.loadContract(tx, scope, contractID, true); err != nil {
		return nil, err
	}

	seen := make(map[models.TaxKind]bool, len(in))
	rows := make([]models.TaxRateOverride, 0, len(in))
	for _, o := range in {
		if !o.Kind.Valid() {
			return nil, violation("unknown tax kind %q", o.Kind)
		}
		if seen[o.Kind] {
			return nil, violation("tax kind %s listed more than once", o.Kind)
		}
		seen[o.Kind] = true
		if o.Rate.IsNegative() || o.Rate.GreaterThan(hundred) {
			return nil, violation("rate for %s must be within 0..100", o.Kind)
		}
		base := o.Base
		if base == "" {
			base = models.TaxBaseGross
		}
		if base != models.TaxBaseGross && base != models.TaxBaseNet {
			return nil, violation("unknown tax base %q", o.Base)
		}
		rows = append(rows, models.TaxRateOverride{
			ContractID: contractID, Kind: o.Kind, Rate: o.Rate.Round(2), Base: base,
		})
	}

	if err := tx.Where("contract_id = ?", contractID).Delete(&models.TaxRateOverride{}).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
	}
	return rows, nil
}

func (s *Service) ListTaxOverrides(tx *gorm.DB, scope Scope, contractID uint) ([]models.TaxRateOverride, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	var rows []models.TaxRateOverride
	if err := tx.Where("contract_id = ?", contractID).Order("kind").Find(&rows).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return rows, nil
}
