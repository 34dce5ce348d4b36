package services

import (
	"strings"
	"time"

	"contratos-backend/models"
	"contratos-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AmendmentInput struct {
	Kind          models.AmendmentKind
	Number        *string
	ApprovalDate  *time.Time
	DayDelta      int
	ValueDelta    decimal.Decimal
	Justification *string
}

type AmendmentPatch struct {
	Kind          *models.AmendmentKind `json:"kind"`
	Number        *string               `json:"number"`
	ApprovalDate  *time.Time            `json:"approval_date"`
	DayDelta      *int                  `json:"day_delta"`
	ValueDelta    *decimal.Decimal      `json:"value_delta"`
	Justification *string               `json:"justification"`
}

func validAmendmentKind(k models.AmendmentKind) bool {
	switch k {
	case models.AmendmentTerm, models.AmendmentValue, models.AmendmentBoth, models.AmendmentSuspension:
		return true
	}
	return false
}

func (s *Service) checkAmendmentNumber(tx *gorm.DB, contractID uint, number *string, exceptID uint) error {
	if number == nil || strings.TrimSpace(*number) == "" {
		return nil
	}
	var n int64
	q := tx.Model(&models.Amendment{}).Where("contract_id = ? AND number = ?", contractID, strings.TrimSpace(*number))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return ClassifyDBError(err)
	}
	if n > 0 {
		return duplicate("amendment number %s already exists on contract %d", *number, contractID)
	}
	return nil
}

// CreateAmendment adds an amendment and recomputes the contract's projection.
func (s *Service) CreateAmendment(tx *gorm.DB, scope Scope, contractID uint, in AmendmentInput) (*models.Amendment, error) {
	if _, err := s.loadContract(tx, scope, contractID, true); err != nil {
		return nil, err
	}
	if !validAmendmentKind(in.Kind) {
		return nil, violation("unknown amendment kind %q", in.Kind)
	}
	if err := s.checkAmendmentNumber(tx, contractID, in.Number, 0); err != nil {
		return nil, err
	}
	a := models.Amendment{
		ContractID:    contractID,
		Kind:          in.Kind,
		Number:        trimmed(in.Number),
		ApprovalDate:  in.ApprovalDate,
		DayDelta:      in.DayDelta,
		ValueDelta:    in.ValueDelta.Round(2),
		Justification: in.Justification,
	}
	if err := tx.Create(&a).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	if _, err := s.RecomputeContract(tx, contractID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) loadAmendment(tx *gorm.DB, scope Scope, id uint) (*models.Amendment, error) {
	var a models.Amendment
	if err := tx.First(&a, id).Error; err != nil {
		return nil, lookupErr(err, "amendment %d not found", id)
	}
	if !scope.Allows(a.ContractID) {
		return nil, notFound("amendment %d not found", id)
	}
	return &a, nil
}

func (s *Service) GetAmendment(tx *gorm.DB, scope Scope, id uint) (*models.Amendment, error) {
	return s.loadAmendment(tx, scope, id)
}

func (s *Service) UpdateAmendment(tx *gorm.DB, scope Scope, id uint, p AmendmentPatch) (*models.Amendment, error) {
	a, err := s.loadAmendment(tx, scope, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadContract(tx, scope, a.ContractID, true); err != nil {
		return nil, err
	}
	if p.Kind != nil && !validAmendmentKind(*p.Kind) {
		return nil, violation("unknown amendment kind %q", *p.Kind)
	}
	if p.Number != nil {
		if err := s.checkAmendmentNumber(tx, a.ContractID, p.Number, a.ID); err != nil {
			return nil, err
		}
		p.Number = trimmed(p.Number)
	}
	if p.ValueDelta != nil {
		rounded := p.ValueDelta.Round(2)
		p.ValueDelta = &rounded
	}

	updates := utils.ChangedColumns(&p)
	if len(updates) == 0 {
		return a, nil
	}
	if err := tx.Model(&models.Amendment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	if _, err := s.RecomputeContract(tx, a.ContractID); err != nil {
		return nil, err
	}
	return s.loadAmendment(tx, scope, id)
}

func (s *Service) DeleteAmendment(tx *gorm.DB, scope Scope, id uint) error {
	a, err := s.loadAmendment(tx, scope, id)
	if err != nil {
		return err
	}
	if _, err := s.loadContract(tx, scope, a.ContractID, true); err != nil {
		return err
	}
	if err := tx.Delete(&models.Amendment{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	_, err = s.RecomputeContract(tx, a.ContractID)
	return err
}

func (s *Service) ListAmendments(tx *gorm.DB, scope Scope, contractID uint) ([]models.Amendment, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	var out []models.Amendment
	if err := tx.Where("contract_id = ?", contractID).Order("id").Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

// trimmed returns nil for blank strings and a trimmed copy otherwise.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
