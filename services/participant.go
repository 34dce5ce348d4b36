package services

import (
	"contratos-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const participantsSumTrigger = "trg_participants_share_sum"

type ParticipantInput struct {
	CompanyID uint
	Share     decimal.Decimal
	IsLeader  bool
}

// ValidateShares checks a replacement participant list: shares within 0..100 with at
// most two decimals, no company twice, exactly one leader, and a total of exactly 100.00.
// An empty list is valid.
func ValidateShares(list []ParticipantInput) error {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[uint]bool, len(list))
	leaders := 0
	total := decimal.Zero
	for _, p := range list {
		if p.CompanyID == 0 {
			return violation("participant company is required")
		}
		if seen[p.CompanyID] {
			return violation("company %d is listed more than once", p.CompanyID)
		}
		seen[p.CompanyID] = true
		if p.Share.IsNegative() || p.Share.GreaterThan(hundred) {
			return violation("share of company %d must be within 0..100", p.CompanyID)
		}
		if !p.Share.Equal(p.Share.Round(2)) {
			return violation("share of company %d has more than two decimals", p.CompanyID)
		}
		if p.IsLeader {
			leaders++
		}
		total = total.Add(p.Share)
	}
	if leaders != 1 {
		return violation("exactly one leader is required, got %d", leaders)
	}
	if !total.Equal(hundred) {
		return violation("participant shares sum to %s, expected 100.00", total.StringFixed(2))
	}
	return nil
}

// eligibleParticipant tells whether a company of the given kind may take part in a
// contract of the given kind, as leader or as member.
func eligibleParticipant(contract models.ContractKind, company models.CompanyKind, leader bool) bool {
	switch contract {
	case models.ContractConsortium:
		if leader {
			return company == models.CompanyHeadquarters || company == models.CompanyConsortiumMember
		}
		return company == models.CompanyConsortiumMember
	case models.ContractPartnership:
		if leader {
			return company == models.CompanyHeadquarters || company == models.CompanyConsortiumMember
		}
		return company == models.CompanyConsortiumMember || company == models.CompanySCP
	}
	return false
}

// ReplaceParticipants swaps the whole participant list of a contract. The share sum
// is checked again by the database when the constraint trigger fires at the end.
func (s *Service) ReplaceParticipants(tx *gorm.DB, scope Scope, contractID uint, list []ParticipantInput) ([]models.Participant, error) {
	c, err := s.loadContract(tx, scope, contractID, true)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 && !c.SharesValue() {
		return nil, violation("contract %d is %s and takes no participants", contractID, c.Kind)
	}
	if err := ValidateShares(list); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.CompanyID)
	}
	kinds := make(map[uint]models.CompanyKind, len(list))
	if len(ids) > 0 {
		var companies []models.Company
		if err := tx.Where("id IN ?", ids).Find(&companies).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
		for _, co := range companies {
			kinds[co.ID] = co.Kind
		}
	}
	for _, p := range list {
		kind, ok := kinds[p.CompanyID]
		if !ok {
			return nil, notFound("company %d not found", p.CompanyID)
		}
		if !eligibleParticipant(c.Kind, kind, p.IsLeader) {
			role := "member"
			if p.IsLeader {
				role = "leader"
			}
			return nil, violation("company %d (%s) cannot be %s of a %s contract", p.CompanyID, kind, role, c.Kind)
		}
	}

	if err := tx.Where("contract_id = ?", contractID).Delete(&models.Participant{}).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	rows := make([]models.Participant, 0, len(list))
	for i, p := range list {
		rows = append(rows, models.Participant{
			ContractID: contractID,
			CompanyID:  p.CompanyID,
			Share:      p.Share,
			IsLeader:   p.IsLeader,
			Position:   i,
		})
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
	}
	if err := tx.Exec("SET CONSTRAINTS " + participantsSumTrigger + " IMMEDIATE").Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	s.Log.WithField("contract_id", contractID).WithField("participants", len(rows)).Info("participants replaced")
	return rows, nil
}

// ClearParticipants removes every participant of a contract.
func (s *Service) ClearParticipants(tx *gorm.DB, scope Scope, contractID uint) error {
	_, err := s.ReplaceParticipants(tx, scope, contractID, nil)
	return err
}

// ListParticipants returns the participants in the order they were submitted.
func (s *Service) ListParticipants(tx *gorm.DB, scope Scope, contractID uint) ([]models.Participant, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	return s.participants(tx, contractID)
}

func (s *Service) participants(tx *gorm.DB, contractID uint) ([]models.Participant, error) {
	var out []models.Participant
	err := tx.Preload("Company").Where("contract_id = ?", contractID).
		Order("position, company_id").Find(&out).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}
