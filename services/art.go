package services

import (
	"strings"
	"time"

	"contratos-backend/models"

	"gorm.io/gorm"
)

type ARTInput struct {
	ProfessionalName string
	Number           string
	Finished         bool
	FinishedOn       *time.Time
}

type ARTPatch struct {
	ProfessionalName *string
	Number           *string
	Finished         *bool
	FinishedOn       *time.Time
}

// FinishDate settles the finish date of an ART: a finished ART without a date is
// stamped with today, an unfinished one cannot carry a date.
func FinishDate(finished bool, on *time.Time, today time.Time) (*time.Time, error) {
	if !finished {
		if on != nil {
			return nil, violation("an ART that is not finished has no finish date")
		}
		return nil, nil
	}
	d := today
	if on != nil {
		d = *on
	}
	d = DateOnly(d)
	return &d, nil
}

func (s *Service) checkARTNumber(tx *gorm.DB, contractID uint, number string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.ContractART{}).Where("contract_id = ? AND number = ?", contractID, number)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return ClassifyDBError(err)
	}
	if n > 0 {
		return duplicate("ART %s already exists on contract %d", number, contractID)
	}
	return nil
}

func (s *Service) CreateART(tx *gorm.DB, scope Scope, contractID uint, in ARTInput) (*models.ContractART, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	name, number := strings.TrimSpace(in.ProfessionalName), strings.TrimSpace(in.Number)
	if name == "" || number == "" {
		return nil, violation("professional name and ART number are required")
	}
	finishedOn, err := FinishDate(in.Finished, in.FinishedOn, s.today())
	if err != nil {
		return nil, err
	}
	if err := s.checkARTNumber(tx, contractID, number, 0); err != nil {
		return nil, err
	}
	art := models.ContractART{
		ContractID:       contractID,
		ProfessionalName: name,
		Number:           number,
		Finished:         in.Finished,
		FinishedOn:       finishedOn,
	}
	if err := tx.Create(&art).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return &art, nil
}

func (s *Service) GetART(tx *gorm.DB, scope Scope, id uint) (*models.ContractART, error) {
	var art models.ContractART
	if err := tx.First(&art, id).Error; err != nil {
		return nil, lookupErr(err, "ART %d not found", id)
	}
	if !scope.Allows(art.ContractID) {
		return nil, notFound("ART %d not found", id)
	}
	return &art, nil
}

func (s *Service) ListARTs(tx *gorm.DB, scope Scope, contractID uint) ([]models.ContractART, error) {
	if _, err := s.loadContract(tx, scope, contractID, false); err != nil {
		return nil, err
	}
	var out []models.ContractART
	if err := tx.Where("contract_id = ?", contractID).Order("id").Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

// UpdateART edits an ART. Marking it finished without a date stamps today;
// reopening it clears the date.
func (s *Service) UpdateART(tx *gorm.DB, scope Scope, id uint, p ARTPatch) (*models.ContractART, error) {
	art, err := s.GetART(tx, scope, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if p.ProfessionalName != nil {
		name := strings.TrimSpace(*p.ProfessionalName)
		if name == "" {
			return nil, violation("professional name is required")
		}
		updates["professional_name"] = name
	}
	if p.Number != nil {
		number := strings.TrimSpace(*p.Number)
		if number == "" {
			return nil, violation("ART number is required")
		}
		if err := s.checkARTNumber(tx, art.ContractID, number, art.ID); err != nil {
			return nil, err
		}
		updates["number"] = number
	}
	if p.Finished != nil || p.FinishedOn != nil {
		finished := art.Finished
		if p.Finished != nil {
			finished = *p.Finished
		}
		on := p.FinishedOn
		if on == nil && finished && art.Finished {
			on = art.FinishedOn
		}
		finishedOn, err := FinishDate(finished, on, s.today())
		if err != nil {
			return nil, err
		}
		updates["finished"] = finished
		updates["finished_on"] = finishedOn
	}
	if len(updates) == 0 {
		return art, nil
	}
	updates["updated_at"] = s.Now()
	if err := tx.Model(&models.ContractART{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return s.GetART(tx, scope, id)
}

func (s *Service) DeleteART(tx *gorm.DB, scope Scope, id uint) error {
	if _, err := s.GetART(tx, scope, id); err != nil {
		return err
	}
	if err := tx.Delete(&models.ContractART{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	return nil
}
