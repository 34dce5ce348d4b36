package services

import (
	"time"

	"contratos-backend/models"
	"contratos-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PolicyInput struct {
	InsurerID    uint
	Kind         models.PolicyKind
	PolicyNumber *string
	DueDate      time.Time
	Value        *decimal.Decimal
}

type PolicyPatch struct {
	InsurerID    *uint
	Kind         *models.PolicyKind
	PolicyNumber *string
	DueDate      *time.Time
	Value        *decimal.Decimal
}

func validPolicyKind(k models.PolicyKind) bool {
	switch k {
	case models.PolicyPerformanceBond, models.PolicyEngineeringRisk, models.PolicyCivilLiability:
		return true
	}
	return false
}

// checkPolicyValue refuses negative values and fractions of a cent.
func checkPolicyValue(v *decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() {
		return violation("policy value must not be negative")
	}
	if !v.Equal(v.Round(2)) {
		return violation("policy value must have at most 2 decimal places")
	}
	return nil
}

func (s *Service) checkInsurer(tx *gorm.DB, id uint) error {
	var co models.Company
	if err := tx.First(&co, id).Error; err != nil {
		return lookupErr(err, "insurer company %d not found", id)
	}
	if co.Kind != models.CompanyInsurer {
		return violation("company %d is %s, not an %s", id, co.Kind, models.CompanyInsurer)
	}
	return nil
}

func (s *Service) checkPolicyNumber(tx *gorm.DB, number *string, exceptID uint) error {
	if number == nil {
		return nil
	}
	var n int64
	q := tx.Model(&models.InsurancePolicy{}).Where("policy_number = ?", *number)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return ClassifyDBError(err)
	}
	if n > 0 {
		return duplicate("policy number %s is already registered", *number)
	}
	return nil
}

func (s *Service) CreatePolicy(tx *gorm.DB, scope Scope, contractID uint, in PolicyInput) (*models.InsurancePolicy, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	if !validPolicyKind(in.Kind) {
		return nil, violation("unknown policy kind %q", in.Kind)
	}
	if err := checkPolicyValue(in.Value); err != nil {
		return nil, err
	}
	if err := s.checkInsurer(tx, in.InsurerID); err != nil {
		return nil, err
	}
	number := trimmed(in.PolicyNumber)
	if err := s.checkPolicyNumber(tx, number, 0); err != nil {
		return nil, err
	}
	p := models.InsurancePolicy{
		ContractID:   contractID,
		InsurerID:    in.InsurerID,
		Kind:         in.Kind,
		PolicyNumber: number,
		DueDate:      DateOnly(in.DueDate),
		Value:        in.Value,
	}
	if err := tx.Create(&p).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return &p, nil
}

func (s *Service) GetPolicy(tx *gorm.DB, scope Scope, id uint) (*models.InsurancePolicy, error) {
	var p models.InsurancePolicy
	if err := tx.Preload("Insurer").First(&p, id).Error; err != nil {
		return nil, lookupErr(err, "policy %d not found", id)
	}
	if !scope.Allows(p.ContractID) {
		return nil, notFound("policy %d not found", id)
	}
	return &p, nil
}

// ListPolicies returns the policies of a contract, soonest due first.
func (s *Service) ListPolicies(tx *gorm.DB, scope Scope, contractID uint) ([]models.InsurancePolicy, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	var out []models.InsurancePolicy
	err := tx.Preload("Insurer").Where("contract_id = ?", contractID).Order("due_date, id").Find(&out).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

func (s *Service) UpdatePolicy(tx *gorm.DB, scope Scope, id uint, p PolicyPatch) (*models.InsurancePolicy, error) {
	current, err := s.GetPolicy(tx, scope, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if p.InsurerID != nil {
		if err := s.checkInsurer(tx, *p.InsurerID); err != nil {
			return nil, err
		}
		updates["insurer_id"] = *p.InsurerID
	}
	if p.Kind != nil {
		if !validPolicyKind(*p.Kind) {
			return nil, violation("unknown policy kind %q", *p.Kind)
		}
		updates["kind"] = *p.Kind
	}
	if p.PolicyNumber != nil {
		number := trimmed(p.PolicyNumber)
		if err := s.checkPolicyNumber(tx, number, current.ID); err != nil {
			return nil, err
		}
		updates["policy_number"] = number
	}
	if p.DueDate != nil {
		updates["due_date"] = DateOnly(*p.DueDate)
	}
	if p.Value != nil {
		if err := checkPolicyValue(p.Value); err != nil {
			return nil, err
		}
		updates["value"] = utils.Round2(*p.Value)
	}
	if len(updates) == 0 {
		return current, nil
	}
	updates["updated_at"] = s.Now()
	if err := tx.Model(&models.InsurancePolicy{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return s.GetPolicy(tx, scope, id)
}

func (s *Service) DeletePolicy(tx *gorm.DB, scope Scope, id uint) error {
	if _, err := s.GetPolicy(tx, scope, id); err != nil {
		return err
	}
	if err := tx.Delete(&models.InsurancePolicy{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	return nil
}
