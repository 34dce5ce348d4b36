package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePartial   InvoiceStatus = "PARTIAL"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
)

// Invoice (NF) is issued against an approved measurement report.
// Withheld amounts, NetValue and Status are derived; callers only supply GrossValue.
type Invoice struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	ReportID uint     `json:"report_id" gorm:"not null;index;uniqueIndex:idx_invoices_report_issuer_client,priority:1"`
	Number   *string  `json:"number" gorm:"size:30"`
	IssuerID uint     `json:"issuer_id" gorm:"not null;uniqueIndex:idx_invoices_report_issuer_client,priority:2"`
	Issuer   *Company `json:"issuer,omitempty" gorm:"foreignKey:IssuerID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	ClientID uint     `json:"client_id" gorm:"not null;uniqueIndex:idx_invoices_report_issuer_client,priority:3"`
	Client   *Company `json:"client,omitempty" gorm:"foreignKey:ClientID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`

	GrossValue     decimal.Decimal `json:"gross_value" gorm:"type:numeric(15,2);not null"`
	ISSWithheld    decimal.Decimal `json:"iss_withheld" gorm:"type:numeric(15,2);not null;default:0"`
	INSSWithheld   decimal.Decimal `json:"inss_withheld" gorm:"type:numeric(15,2);not null;default:0"`
	IRRFWithheld   decimal.Decimal `json:"irrf_withheld" gorm:"type:numeric(15,2);not null;default:0"`
	CSLLWithheld   decimal.Decimal `json:"csll_withheld" gorm:"type:numeric(15,2);not null;default:0"`
	PISWithheld    decimal.Decimal `json:"pis_withheld" gorm:"type:numeric(15,2);not null;default:0"`
	COFINSWithheld decimal.Decimal `json:"cofins_withheld" gorm:"type:numeric(15,2);not null;default:0"`
	NetValue       decimal.Decimal `json:"net_value" gorm:"type:numeric(15,2);not null"`

	IssueDate time.Time     `json:"issue_date" gorm:"type:date;not null"`
	DueDate   time.Time     `json:"due_date" gorm:"type:date;not null;index:idx_invoices_status_due,priority:2"`
	Status    InvoiceStatus `json:"status" gorm:"type:varchar(10);not null;default:PENDING;index:idx_invoices_status_due,priority:1"`

	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (inv *Invoice) withheldField(kind TaxKind) *decimal.Decimal {
	switch kind {
	case TaxISS:
		return &inv.ISSWithheld
	case TaxINSS:
		return &inv.INSSWithheld
	case TaxIRRF:
		return &inv.IRRFWithheld
	case TaxCSLL:
		return &inv.CSLLWithheld
	case TaxPIS:
		return &inv.PISWithheld
	case TaxCOFINS:
		return &inv.COFINSWithheld
	}
	return nil
}

// Withheld returns the amount withheld for one tax kind.
func (inv *Invoice) Withheld(kind TaxKind) decimal.Decimal {
	if f := inv.withheldField(kind); f != nil {
		return *f
	}
	return decimal.Zero
}

func (inv *Invoice) SetWithheld(kind TaxKind, amount decimal.Decimal) {
	if f := inv.withheldField(kind); f != nil {
		*f = amount
	}
}

// TotalWithheld sums the six withheld amounts.
func (inv *Invoice) TotalWithheld() decimal.Decimal {
	total := decimal.Zero
	for _, kind := range TaxKinds {
		total = total.Add(inv.Withheld(kind))
	}
	return total
}

// Payment is a receipt against an invoice. Reversed payments stay on record but no longer count.
type Payment struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	InvoiceID  uint            `json:"invoice_id" gorm:"not null;index:idx_payments_invoice_paid_on,priority:1"`
	PaidOn     time.Time       `json:"paid_on" gorm:"type:date;not null;index:idx_payments_invoice_paid_on,priority:2"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(15,2);not null"`
	ReceiptKey *string         `json:"receipt_key" gorm:"size:255"`
	Notes      *string         `json:"notes" gorm:"type:text"`
	Reversed   bool            `json:"reversed" gorm:"not null;default:false"`
	ReversedAt *time.Time      `json:"reversed_at"`
	CreatedAt  time.Time       `json:"created_at"`
}
