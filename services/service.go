package services

import (
	"time"

	"contratos-backend/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaxDefaults are the global fallback rates, in percent, used when a contract has no override.
type TaxDefaults map[models.TaxKind]decimal.Decimal

func DefaultTaxDefaults() TaxDefaults {
	return TaxDefaults{
		models.TaxISS:    decimal.RequireFromString("5.00"),
		models.TaxINSS:   decimal.RequireFromString("11.00"),
		models.TaxIRRF:   decimal.RequireFromString("1.50"),
		models.TaxCSLL:   decimal.RequireFromString("1.00"),
		models.TaxPIS:    decimal.RequireFromString("0.65"),
		models.TaxCOFINS: decimal.RequireFromString("3.00"),
	}
}

// TaxDefaultsFrom converts configuration keys ("ISS", "INSS", ...) to tax kinds.
// Kinds missing from m keep their built-in default.
func TaxDefaultsFrom(m map[string]decimal.Decimal) TaxDefaults {
	out := DefaultTaxDefaults()
	for k, v := range m {
		kind := models.TaxKind(k)
		if kind.Valid() {
			out[kind] = v
		}
	}
	return out
}

// Service holds the recalculation rules. Every method works on the *gorm.DB it is
// given, so callers decide the transaction boundary.
type Service struct {
	Now     func() time.Time
	Taxes   TaxDefaults
	DueDays int
	Log     logrus.FieldLogger
}

func New(taxes TaxDefaults, dueDays int, log logrus.FieldLogger) *Service {
	if taxes == nil {
		taxes = DefaultTaxDefaults()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{Now: time.Now, Taxes: taxes, DueDays: dueDays, Log: log}
}

func (s *Service) today() time.Time {
	return DateOnly(s.Now())
}

// DateOnly drops the clock part of t, keeping its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Scope restricts which contracts a caller may see.
type Scope struct {
	All         bool
	ContractIDs []uint
}

// FullScope sees every contract.
var FullScope = Scope{All: true}

func (sc Scope) Allows(contractID uint) bool {
	if sc.All {
		return true
	}
	for _, id := range sc.ContractIDs {
		if id == contractID {
			return true
		}
	}
	return false
}

func (sc Scope) apply(q *gorm.DB, column string) *gorm.DB {
	if sc.All {
		return q
	}
	if len(sc.ContractIDs) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where(column+" IN ?", sc.ContractIDs)
}

// Page is a limit/offset window for list operations.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return q.Limit(p.Limit).Offset(p.Offset)
}

func forUpdate() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}

func forUpdateOf(table string) clause.Expression {
	return clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: table}}
}

var hundred = decimal.NewFromInt(100)
