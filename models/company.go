package models

import "time"

type CompanyKind string

const (
	CompanyHeadquarters     CompanyKind = "HEADQUARTERS"
	CompanyBranch           CompanyKind = "BRANCH"
	CompanyConsortiumMember CompanyKind = "CONSORTIUM_PARTNER"
	CompanySCP              CompanyKind = "SCP"
	CompanyClient           CompanyKind = "CLIENT"
	CompanyInsurer          CompanyKind = "INSURER"
)

// Company is any legal entity the firm deals with: itself, consortium partners and clients.
type Company struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	LegalName string      `json:"legal_name" gorm:"size:200;not null"`
	TaxID     string      `json:"tax_id" gorm:"size:18;not null;uniqueIndex"`
	Kind      CompanyKind `json:"kind" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time   `json:"created_at"`
}
