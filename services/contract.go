package services

import (
	"strings"
	"time"

	"contratos-backend/models"
	"contratos-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectTerm derives the projected end date and total value of a contract from
// its original terms and the summed amendment deltas. Days are calendar days.
func ProjectTerm(start time.Time, durationDays, dayDeltas int, original, valueDeltas decimal.Decimal) (time.Time, decimal.Decimal) {
	end := start.AddDate(0, 0, durationDays+dayDeltas)
	return end, original.Add(valueDeltas).Round(2)
}

type amendmentTotals struct {
	Days  int64
	Value decimal.Decimal
}

// RecomputeContract refreshes the derived fields of a contract from its amendments.
// It must run in the same transaction as the mutation that triggered it.
func (s *Service) RecomputeContract(tx *gorm.DB, contractID uint) (*models.Contract, error) {
	var c models.Contract
	if err := tx.Clauses(forUpdate()).First(&c, contractID).Error; err != nil {
		return nil, lookupErr(err, "contract %d not found", contractID)
	}

	var totals amendmentTotals
	err := tx.Model(&models.Amendment{}).
		Select("COALESCE(SUM(day_delta), 0) AS days, COALESCE(SUM(value_delta), 0) AS value").
		Where("contract_id = ?", contractID).
		Scan(&totals).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}

	end, total := ProjectTerm(DateOnly(c.StartDate), c.OriginalDurationDays, int(totals.Days), c.OriginalValue, totals.Value)
	err = tx.Model(&models.Contract{}).Where("id = ?", contractID).
		Updates(map[string]any{"projected_end_date": end, "total_value": total, "updated_at": s.Now()}).Error
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	c.ProjectedEndDate = end
	c.TotalValue = total
	c.RefreshWarnings()
	if len(c.Warnings) > 0 {
		s.Log.WithFields(logrus.Fields{
			"contract_id": c.ID,
			"total_value": total.StringFixed(2),
			"end_date":    end.Format(time.DateOnly),
			"warnings":    c.Warnings,
		}).Warn("contract projection out of expected range")
	}
	return &c, nil
}

// loadContract fetches a contract visible to scope, optionally locking its row.
func (s *Service) loadContract(tx *gorm.DB, scope Scope, id uint, lock bool) (*models.Contract, error) {
	if !scope.Allows(id) {
		return nil, notFound("contract %d not found", id)
	}
	q := tx
	if lock {
		q = q.Clauses(forUpdate())
	}
	var c models.Contract
	if err := q.First(&c, id).Error; err != nil {
		return nil, lookupErr(err, "contract %d not found", id)
	}
	return &c, nil
}

type ContractInput struct {
	Number                  string
	Kind                    models.ContractKind
	ClientID                uint
	OriginalValue           decimal.Decimal
	OriginalDurationDays    int
	StartDate               time.Time
	Status                  models.ContractStatus
	ServiceOrderNumber      *string
	ServiceOrderDate        *time.Time
	ServiceOrderDescription *string
	Manager                 *string
}

// ContractPatch carries the fields of a partial update; json tags name the columns.
type ContractPatch struct {
	Number                  *string                `json:"number"`
	Kind                    *models.ContractKind   `json:"kind"`
	ClientID                *uint                  `json:"client_id"`
	OriginalValue           *decimal.Decimal       `json:"original_value"`
	OriginalDurationDays    *int                   `json:"original_duration_days"`
	StartDate               *time.Time             `json:"start_date"`
	Status                  *models.ContractStatus `json:"status"`
	ServiceOrderNumber      *string                `json:"service_order_number"`
	ServiceOrderDate        *time.Time             `json:"service_order_date"`
	ServiceOrderDescription *string                `json:"service_order_description"`
	Manager                 *string                `json:"manager"`
}

func validContractKind(k models.ContractKind) bool {
	return k == models.ContractSole || k == models.ContractConsortium || k == models.ContractPartnership
}

func validContractStatus(st models.ContractStatus) bool {
	return st == models.ContractActive || st == models.ContractSuspended || st == models.ContractClosed
}

func (s *Service) checkClient(tx *gorm.DB, clientID uint) error {
	var client models.Company
	if err := tx.First(&client, clientID).Error; err != nil {
		return lookupErr(err, "company %d not found", clientID)
	}
	if client.Kind != models.CompanyClient {
		return violation("company %d is %s, a contract client must be %s", clientID, client.Kind, models.CompanyClient)
	}
	return nil
}

// CreateContract stores a contract with its initial projection and, when ownerID is set,
// makes it visible to that user.
func (s *Service) CreateContract(tx *gorm.DB, ownerID string, in ContractInput) (*models.Contract, error) {
	if strings.TrimSpace(in.Number) == "" {
		return nil, violation("contract number is required")
	}
	if !validContractKind(in.Kind) {
		return nil, violation("unknown contract kind %q", in.Kind)
	}
	if in.Status == "" {
		in.Status = models.ContractActive
	}
	if !validContractStatus(in.Status) {
		return nil, violation("unknown contract status %q", in.Status)
	}
	if in.OriginalValue.IsNegative() {
		return nil, violation("original value must not be negative")
	}
	if in.OriginalDurationDays < 0 {
		return nil, violation("original duration must not be negative")
	}
	if err := s.checkClient(tx, in.ClientID); err != nil {
		return nil, err
	}

	start := DateOnly(in.StartDate)
	end, total := ProjectTerm(start, in.OriginalDurationDays, 0, in.OriginalValue, decimal.Zero)
	c := models.Contract{
		Number:                  strings.TrimSpace(in.Number),
		Kind:                    in.Kind,
		ClientID:                in.ClientID,
		OriginalValue:           in.OriginalValue.Round(2),
		OriginalDurationDays:    in.OriginalDurationDays,
		StartDate:               start,
		ProjectedEndDate:        end,
		TotalValue:              total,
		Status:                  in.Status,
		ServiceOrderNumber:      in.ServiceOrderNumber,
		ServiceOrderDate:        in.ServiceOrderDate,
		ServiceOrderDescription: in.ServiceOrderDescription,
		Manager:                 in.Manager,
	}
	if err := tx.Create(&c).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	if ownerID != "" {
		grant := models.UserContract{UserID: ownerID, ContractID: c.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
	}
	c.RefreshWarnings()
	s.Log.WithField("contract_id", c.ID).Info("contract created")
	return &c, nil
}

func (s *Service) UpdateContract(tx *gorm.DB, scope Scope, id uint, p ContractPatch) (*models.Contract, error) {
	c, err := s.loadContract(tx, scope, id, true)
	if err != nil {
		return nil, err
	}

	if p.Number != nil && strings.TrimSpace(*p.Number) == "" {
		return nil, violation("contract number is required")
	}
	if p.Kind != nil {
		if !validContractKind(*p.Kind) {
			return nil, violation("unknown contract kind %q", *p.Kind)
		}
		if *p.Kind == models.ContractSole {
			var n int64
			if err := tx.Model(&models.Participant{}).Where("contract_id = ?", id).Count(&n).Error; err != nil {
				return nil, ClassifyDBError(err)
			}
			if n > 0 {
				return nil, violation("contract %d still has participants, clear them before making it %s", id, models.ContractSole)
			}
		}
	}
	if p.Status != nil && !validContractStatus(*p.Status) {
		return nil, violation("unknown contract status %q", *p.Status)
	}
	if p.OriginalValue != nil {
		if p.OriginalValue.IsNegative() {
			return nil, violation("original value must not be negative")
		}
		rounded := p.OriginalValue.Round(2)
		p.OriginalValue = &rounded
	}
	if p.OriginalDurationDays != nil && *p.OriginalDurationDays < 0 {
		return nil, violation("original duration must not be negative")
	}
	if p.ClientID != nil && *p.ClientID != c.ClientID {
		if err := s.checkClient(tx, *p.ClientID); err != nil {
			return nil, err
		}
	}
	if p.StartDate != nil {
		start := DateOnly(*p.StartDate)
		p.StartDate = &start
	}

	updates := utils.ChangedColumns(&p)
	if len(updates) == 0 {
		return c, nil
	}
	updates["updated_at"] = s.Now()
	if err := tx.Model(&models.Contract{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, ClassifyDBError(err)
	}

	if p.StartDate != nil || p.OriginalDurationDays != nil || p.OriginalValue != nil {
		if _, err := s.RecomputeContract(tx, id); err != nil {
			return nil, err
		}
	}
	return s.GetContract(tx, scope, id)
}

// DeleteContract removes a contract and its amendments, participants and overrides.
// Contracts with measurement reports cannot be deleted.
func (s *Service) DeleteContract(tx *gorm.DB, scope Scope, id uint) error {
	if _, err := s.loadContract(tx, scope, id, true); err != nil {
		return err
	}
	var n int64
	if err := tx.Model(&models.MeasurementReport{}).Where("contract_id = ?", id).Count(&n).Error; err != nil {
		return ClassifyDBError(err)
	}
	if n > 0 {
		return violation("contract %d has %d measurement report(s) and cannot be deleted", id, n)
	}
	if err := tx.Delete(&models.Contract{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	s.Log.WithField("contract_id", id).Info("contract deleted")
	return nil
}

func (s *Service) GetContract(tx *gorm.DB, scope Scope, id uint) (*models.Contract, error) {
	if !scope.Allows(id) {
		return nil, notFound("contract %d not found", id)
	}
	var c models.Contract
	err := tx.Preload("Client").
		Preload("Amendments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("position, company_id") }).
		Preload("Participants.Company").
		Preload("TaxOverrides").
		Preload("ARTs", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Policies", func(db *gorm.DB) *gorm.DB { return db.Order("due_date, id") }).
		First(&c, id).Error
	if err != nil {
		return nil, lookupErr(err, "contract %d not found", id)
	}
	return &c, nil
}

type ContractFilter struct {
	Status   models.ContractStatus
	Kind     models.ContractKind
	ClientID uint
}

func (s *Service) ListContracts(tx *gorm.DB, scope Scope, f ContractFilter, page Page) ([]models.Contract, error) {
	q := scope.apply(tx.Model(&models.Contract{}), "id")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	var out []models.Contract
	if err := page.apply(q.Order("id")).Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}
