package models

import "github.com/shopspring/decimal"

type TaxKind string

const (
	TaxISS    TaxKind = "ISS"
	TaxINSS   TaxKind = "INSS"
	TaxIRRF   TaxKind = "IRRF"
	TaxCSLL   TaxKind = "CSLL"
	TaxPIS    TaxKind = "PIS"
	TaxCOFINS TaxKind = "COFINS"
)

// TaxKinds lists every withheld tax in the order invoices present them.
var TaxKinds = []TaxKind{TaxISS, TaxINSS, TaxIRRF, TaxCSLL, TaxPIS, TaxCOFINS}

func (k TaxKind) Valid() bool {
	for _, known := range TaxKinds {
		if k == known {
			return true
		}
	}
	return false
}

type TaxBase string

const (
	TaxBaseGross TaxBase = "GROSS"
	TaxBaseNet   TaxBase = "NET"
)

// TaxRateOverride replaces the global default rate of one tax kind for one contract.
type TaxRateOverride struct {
	ContractID uint            `json:"contract_id" gorm:"primaryKey;autoIncrement:false"`
	Kind       TaxKind         `json:"kind" gorm:"primaryKey;type:varchar(10)"`
	Rate       decimal.Decimal `json:"rate" gorm:"type:numeric(5,2);not null"`
	Base       TaxBase         `json:"base" gorm:"type:varchar(5);not null;default:GROSS"`
}
