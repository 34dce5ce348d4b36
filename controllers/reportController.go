package controllers

import (
	"contratos-backend/middlewares"
	"contratos-backend/models"
	"contratos-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type reportDTO struct {
	PeriodStart     string          `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd       string          `json:"period_end" validate:"required,datetime=2006-01-02"`
	MeasuredAmount  decimal.Decimal `json:"measured_amount" validate:"dgte0,cents"`
	DeductionAmount decimal.Decimal `json:"deduction_amount" validate:"dgte0,cents"`
}

type reportPatchDTO struct {
	PeriodStart        *string              `json:"period_start" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd          *string              `json:"period_end" validate:"omitempty,datetime=2006-01-02"`
	MeasuredAmount     *decimal.Decimal     `json:"measured_amount" validate:"omitempty,dgte0,cents"`
	DeductionAmount    *decimal.Decimal     `json:"deduction_amount" validate:"omitempty,dgte0,cents"`
	Status             *models.ReportStatus `json:"status" validate:"omitempty,oneof=DRAFT APPROVED INVOICED CANCELLED"`
	CancellationReason *string              `json:"cancellation_reason"`
}

func CreateReport(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto reportDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	start, err := dateField(dto.PeriodStart, "period_start")
	if err != nil {
		return err
	}
	end, err := dateField(dto.PeriodEnd, "period_end")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	report, err := svc.CreateReport(tx, scope, contractID, services.ReportInput{
		PeriodStart:     start,
		PeriodEnd:       end,
		MeasuredAmount:  dto.MeasuredAmount,
		DeductionAmount: dto.DeductionAmount,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func GetReports(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	reports, err := svc.ListReports(tx, scope, contractID, models.ReportStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reports": reports, "message": "success"})
}

func GetReport(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	report, err := svc.GetReport(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func UpdateReport(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto reportPatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	start, err := optionalDate(dto.PeriodStart, "period_start")
	if err != nil {
		return err
	}
	end, err := optionalDate(dto.PeriodEnd, "period_end")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	report, err := svc.UpdateReport(tx, scope, id, services.ReportPatch{
		PeriodStart:        start,
		PeriodEnd:          end,
		MeasuredAmount:     dto.MeasuredAmount,
		DeductionAmount:    dto.DeductionAmount,
		Status:             dto.Status,
		CancellationReason: dto.CancellationReason,
	})
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func DeleteReport(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeleteReport(tx, scope, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func ApproveReport(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	report, err := svc.ApproveReport(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

type cancelDTO struct {
	Reason string `json:"reason" validate:"required"`
}

func CancelReport(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto cancelDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	report, err := svc.CancelReport(tx, scope, id, dto.Reason)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func MarkReportInvoiced(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	report, err := svc.MarkInvoiced(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func GetReportSnapshot(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	snap, err := svc.GetReportSnapshot(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

type apportionDTO struct {
	IssuerID uint `json:"issuer_id" validate:"required"`
}

// ApportionReport splits an approved report among the contract participants.
func ApportionReport(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto apportionDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	result, err := svc.Apportion(tx, scope, id, dto.IssuerID)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if len(result.Invoices) > 0 {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

func GetApportionmentRuns(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	runs, err := svc.ListApportionmentRuns(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"runs": runs, "message": "success"})
}
