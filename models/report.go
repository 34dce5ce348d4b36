package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ReportStatus string

const (
	ReportDraft     ReportStatus = "DRAFT"
	ReportApproved  ReportStatus = "APPROVED"
	ReportInvoiced  ReportStatus = "INVOICED"
	ReportCancelled ReportStatus = "CANCELLED"
)

// MeasurementReport (BM) is the periodic measurement of work done on a contract.
// SequenceNumber and ApprovedAmount are always assigned by the server.
type MeasurementReport struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	ContractID         uint            `json:"contract_id" gorm:"not null;uniqueIndex:idx_reports_contract_seq,priority:1;index:idx_reports_contract_status,priority:1"`
	SequenceNumber     int             `json:"sequence_number" gorm:"not null;uniqueIndex:idx_reports_contract_seq,priority:2"`
	PeriodStart        time.Time       `json:"period_start" gorm:"type:date;not null"`
	PeriodEnd          time.Time       `json:"period_end" gorm:"type:date;not null"`
	MeasuredAmount     decimal.Decimal `json:"measured_amount" gorm:"type:numeric(15,2);not null"`
	DeductionAmount    decimal.Decimal `json:"deduction_amount" gorm:"type:numeric(15,2);not null;default:0"`
	ApprovedAmount     decimal.Decimal `json:"approved_amount" gorm:"type:numeric(15,2);not null"`
	Status             ReportStatus    `json:"status" gorm:"type:varchar(10);not null;default:DRAFT;index:idx_reports_contract_status,priority:2"`
	CancellationReason *string         `json:"cancellation_reason" gorm:"type:text"`

	Invoices []Invoice `json:"invoices,omitempty" gorm:"foreignKey:ReportID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportSnapshot freezes a report and its invoices at the moment it became INVOICED.
type ReportSnapshot struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ReportID  uint           `json:"report_id" gorm:"not null;uniqueIndex"`
	Snapshot  datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
}

// ApportionmentRun records one invocation of the apportionment of a report.
type ApportionmentRun struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ReportID     uint            `json:"report_id" gorm:"not null;index"`
	IssuerID     uint            `json:"issuer_id" gorm:"not null"`
	CreatedCount int             `json:"created_count"`
	SkippedCount int             `json:"skipped_count"`
	Remainder    decimal.Decimal `json:"remainder" gorm:"type:numeric(15,2);not null;default:0"`
	Shares       datatypes.JSON  `json:"shares" gorm:"type:jsonb"`
	CreatedAt    time.Time       `json:"created_at"`
}
