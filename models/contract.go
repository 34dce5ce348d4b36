package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractKind string

const (
	ContractSole        ContractKind = "SOLE"
	ContractConsortium  ContractKind = "CONSORTIUM"
	ContractPartnership ContractKind = "PARTNERSHIP"
)

type ContractStatus string

const (
	ContractActive    ContractStatus = "ACTIVE"
	ContractSuspended ContractStatus = "SUSPENDED"
	ContractClosed    ContractStatus = "CLOSED"
)

const (
	WarningNegativeTotal  = "negative_total_value"
	WarningEndBeforeStart = "end_before_start"
)

// Contract is the aggregate root for amendments, participants, tax overrides and measurement reports.
// ProjectedEndDate and TotalValue are derived from the amendments and never taken from input.
type Contract struct {
	ID                   uint            `json:"id" gorm:"primaryKey"`
	Number               string          `json:"number" gorm:"size:50;not null;uniqueIndex"`
	Kind                 ContractKind    `json:"kind" gorm:"type:varchar(20);not null"`
	ClientID             uint            `json:"client_id" gorm:"not null;index"`
	Client               *Company        `json:"client,omitempty" gorm:"foreignKey:ClientID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	OriginalValue        decimal.Decimal `json:"original_value" gorm:"type:numeric(15,2);not null"`
	OriginalDurationDays int             `json:"original_duration_days" gorm:"not null"`
	StartDate            time.Time       `json:"start_date" gorm:"type:date;not null"`
	ProjectedEndDate     time.Time       `json:"projected_end_date" gorm:"type:date"`
	TotalValue           decimal.Decimal `json:"total_value" gorm:"type:numeric(15,2)"`
	Status               ContractStatus  `json:"status" gorm:"type:varchar(12);not null;default:ACTIVE;index"`

	ServiceOrderNumber      *string    `json:"service_order_number" gorm:"size:50"`
	ServiceOrderDate        *time.Time `json:"service_order_date" gorm:"type:date"`
	ServiceOrderDescription *string    `json:"service_order_description" gorm:"type:text"`
	Manager                 *string    `json:"manager" gorm:"size:100"`

	Amendments   []Amendment         `json:"amendments,omitempty" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	Participants []Participant       `json:"participants,omitempty" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	TaxOverrides []TaxRateOverride   `json:"tax_overrides,omitempty" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	ARTs         []ContractART       `json:"arts,omitempty" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	Policies     []InsurancePolicy   `json:"policies,omitempty" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	Reports      []MeasurementReport `json:"-" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`

	Warnings []string `json:"data_quality_warnings,omitempty" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SharesValue reports whether the contract is held jointly and therefore apportions its measurements.
func (c *Contract) SharesValue() bool {
	return c.Kind == ContractConsortium || c.Kind == ContractPartnership
}

// RefreshWarnings flags derived values that amendments pushed out of the expected range.
// They are reported, not clamped.
func (c *Contract) RefreshWarnings() {
	c.Warnings = nil
	if c.TotalValue.IsNegative() {
		c.Warnings = append(c.Warnings, WarningNegativeTotal)
	}
	if !c.ProjectedEndDate.IsZero() && c.ProjectedEndDate.Before(c.StartDate) {
		c.Warnings = append(c.Warnings, WarningEndBeforeStart)
	}
}

func (c *Contract) AfterFind(tx *gorm.DB) error {
	c.RefreshWarnings()
	return nil
}

type AmendmentKind string

const (
	AmendmentTerm       AmendmentKind = "TERM"
	AmendmentValue      AmendmentKind = "VALUE"
	AmendmentBoth       AmendmentKind = "BOTH"
	AmendmentSuspension AmendmentKind = "SUSPENSION"
)

// Amendment changes the duration and/or value of its contract. Deltas may be negative.
type Amendment struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	ContractID    uint            `json:"contract_id" gorm:"not null;index"`
	Kind          AmendmentKind   `json:"kind" gorm:"type:varchar(12);not null"`
	Number        *string         `json:"number" gorm:"size:20"`
	ApprovalDate  *time.Time      `json:"approval_date" gorm:"type:date"`
	DayDelta      int             `json:"day_delta" gorm:"not null;default:0"`
	ValueDelta    decimal.Decimal `json:"value_delta" gorm:"type:numeric(15,2);not null;default:0"`
	Justification *string         `json:"justification" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Participant is one member of a consortium or partnership. The shares of a contract's
// participants add up to exactly 100.00 or the contract has none.
type Participant struct {
	ContractID uint            `json:"contract_id" gorm:"primaryKey;autoIncrement:false"`
	CompanyID  uint            `json:"company_id" gorm:"primaryKey;autoIncrement:false"`
	Company    *Company        `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Share      decimal.Decimal `json:"share" gorm:"type:numeric(5,2);not null"`
	IsLeader   bool            `json:"is_leader" gorm:"not null;default:false"`
	Position   int             `json:"position" gorm:"not null;default:0"`
}

// ContractART is a technical responsibility record (Anotação de Responsabilidade Técnica)
// filed for a contract. FinishedOn is set only once the ART is finished.
type ContractART struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	ContractID       uint       `json:"contract_id" gorm:"not null;uniqueIndex:idx_contract_arts_number,priority:1"`
	ProfessionalName string     `json:"professional_name" gorm:"size:100;not null"`
	Number           string     `json:"number" gorm:"size:30;not null;uniqueIndex:idx_contract_arts_number,priority:2"`
	Finished         bool       `json:"finished" gorm:"not null;default:false"`
	FinishedOn       *time.Time `json:"finished_on" gorm:"type:date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type PolicyKind string

const (
	PolicyPerformanceBond PolicyKind = "PERFORMANCE_BOND"
	PolicyEngineeringRisk PolicyKind = "ENGINEERING_RISK"
	PolicyCivilLiability  PolicyKind = "CIVIL_LIABILITY"
)

// InsurancePolicy is a guarantee or insurance policy attached to a contract.
// The insurer is a company of kind INSURER; policy numbers are unique.
type InsurancePolicy struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	ContractID   uint             `json:"contract_id" gorm:"not null;index"`
	InsurerID    uint             `json:"insurer_id" gorm:"not null;index"`
	Insurer      *Company         `json:"insurer,omitempty" gorm:"foreignKey:InsurerID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Kind         PolicyKind       `json:"kind" gorm:"type:varchar(20);not null"`
	PolicyNumber *string          `json:"policy_number" gorm:"size:50;uniqueIndex"`
	DueDate      time.Time        `json:"due_date" gorm:"type:date;not null"`
	Value        *decimal.Decimal `json:"value" gorm:"type:numeric(15,2)"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (ContractART) TableName() string {
	return "contract_arts"
}
