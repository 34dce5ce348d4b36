package controllers

import (
	"contratos-backend/middlewares"
	"contratos-backend/models"
	"contratos-backend/services"
	"contratos-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type invoiceDTO struct {
	ReportID   uint            `json:"report_id" validate:"required"`
	IssuerID   uint            `json:"issuer_id" validate:"required"`
	ClientID   uint            `json:"client_id" validate:"required"`
	Number     *string         `json:"number" validate:"omitempty,max=30"`
	GrossValue decimal.Decimal `json:"gross_value" validate:"dgte0,cents"`
	IssueDate  *string         `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate    *string         `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type invoicePatchDTO struct {
	Number     *string          `json:"number" validate:"omitempty,max=30"`
	GrossValue *decimal.Decimal `json:"gross_value" validate:"omitempty,dgte0,cents"`
	IssueDate  *string          `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate    *string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func CreateInvoice(c *fiber.Ctx) error {
	var dto invoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	issue, err := optionalDate(dto.IssueDate, "issue_date")
	if err != nil {
		return err
	}
	due, err := optionalDate(dto.DueDate, "due_date")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	invoice, err := svc.CreateInvoice(tx, scope, services.InvoiceInput{
		ReportID:   dto.ReportID,
		IssuerID:   dto.IssuerID,
		ClientID:   dto.ClientID,
		Number:     dto.Number,
		GrossValue: dto.GrossValue,
		IssueDate:  issue,
		DueDate:    due,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

func GetInvoices(c *fiber.Ctx) error {
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	filter := services.InvoiceFilter{
		ReportID:   utils.QueryID(c.Query("report_id")),
		ContractID: utils.QueryID(c.Query("contract_id")),
		Status:     models.InvoiceStatus(c.Query("status")),
	}
	invoices, err := svc.ListInvoices(tx, scope, filter, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoices": invoices, "message": "success"})
}

func GetInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	invoice, err := svc.GetInvoice(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func UpdateInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto invoicePatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)
	issue, err := optionalDate(dto.IssueDate, "issue_date")
	if err != nil {
		return err
	}
	due, err := optionalDate(dto.DueDate, "due_date")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	invoice, err := svc.UpdateInvoice(tx, scope, id, services.InvoicePatch{
		Number:     dto.Number,
		GrossValue: dto.GrossValue,
		IssueDate:  issue,
		DueDate:    due,
	})
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func CancelInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	invoice, err := svc.CancelInvoice(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func DeleteInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeleteInvoice(tx, scope, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func ReconcileInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	invoice, err := svc.ReconcileInvoice(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// MarkOverdueInvoices sweeps open invoices past their due date.
func MarkOverdueInvoices(c *fiber.Ctx) error {
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	changed, err := svc.MarkOverdue(tx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"updated": changed, "message": "success"})
}
