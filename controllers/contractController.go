package controllers

import (
	"contratos-backend/middlewares"
	"contratos-backend/models"
	"contratos-backend/services"
	"contratos-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type contractDTO struct {
	Number                  string                `json:"number" validate:"required,max=50"`
	Kind                    models.ContractKind   `json:"kind" validate:"required,oneof=SOLE CONSORTIUM PARTNERSHIP"`
	ClientID                uint                  `json:"client_id" validate:"required"`
	OriginalValue           decimal.Decimal       `json:"original_value" validate:"dgte0,cents"`
	OriginalDurationDays    int                   `json:"original_duration_days" validate:"gte=0"`
	StartDate               string                `json:"start_date" validate:"required,datetime=2006-01-02"`
	Status                  models.ContractStatus `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED CLOSED"`
	ServiceOrderNumber      *string               `json:"service_order_number" validate:"omitempty,max=50"`
	ServiceOrderDate        *string               `json:"service_order_date" validate:"omitempty,datetime=2006-01-02"`
	ServiceOrderDescription *string               `json:"service_order_description"`
	Manager                 *string               `json:"manager" validate:"omitempty,max=100"`
}

type contractPatchDTO struct {
	Number                  *string                `json:"number" validate:"omitempty,max=50"`
	Kind                    *models.ContractKind   `json:"kind" validate:"omitempty,oneof=SOLE CONSORTIUM PARTNERSHIP"`
	ClientID                *uint                  `json:"client_id" validate:"omitempty,gt=0"`
	OriginalValue           *decimal.Decimal       `json:"original_value" validate:"omitempty,dgte0,cents"`
	OriginalDurationDays    *int                   `json:"original_duration_days" validate:"omitempty,gte=0"`
	StartDate               *string                `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Status                  *models.ContractStatus `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED CLOSED"`
	ServiceOrderNumber      *string                `json:"service_order_number" validate:"omitempty,max=50"`
	ServiceOrderDate        *string                `json:"service_order_date" validate:"omitempty,datetime=2006-01-02"`
	ServiceOrderDescription *string                `json:"service_order_description"`
	Manager                 *string                `json:"manager" validate:"omitempty,max=100"`
}

func CreateContract(c *fiber.Ctx) error {
	var dto contractDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)
	start, err := dateField(dto.StartDate, "start_date")
	if err != nil {
		return err
	}
	osDate, err := optionalDate(dto.ServiceOrderDate, "service_order_date")
	if err != nil {
		return err
	}
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	userID, _ := c.Locals("userID").(string)
	contract, err := svc.CreateContract(tx, userID, services.ContractInput{
		Number:                  dto.Number,
		Kind:                    dto.Kind,
		ClientID:                dto.ClientID,
		OriginalValue:           dto.OriginalValue,
		OriginalDurationDays:    dto.OriginalDurationDays,
		StartDate:               start,
		Status:                  dto.Status,
		ServiceOrderNumber:      dto.ServiceOrderNumber,
		ServiceOrderDate:        osDate,
		ServiceOrderDescription: dto.ServiceOrderDescription,
		Manager:                 dto.Manager,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(contract)
}

func GetContracts(c *fiber.Ctx) error {
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	filter := services.ContractFilter{
		Status:   models.ContractStatus(c.Query("status")),
		Kind:     models.ContractKind(c.Query("kind")),
		ClientID: utils.QueryID(c.Query("client_id")),
	}
	contracts, err := svc.ListContracts(tx, scope, filter, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"contracts": contracts, "message": "success"})
}

func GetContract(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	contract, err := svc.GetContract(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(contract)
}

func UpdateContract(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto contractPatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)
	start, err := optionalDate(dto.StartDate, "start_date")
	if err != nil {
		return err
	}
	osDate, err := optionalDate(dto.ServiceOrderDate, "service_order_date")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	contract, err := svc.UpdateContract(tx, scope, id, services.ContractPatch{
		Number:                  dto.Number,
		Kind:                    dto.Kind,
		ClientID:                dto.ClientID,
		OriginalValue:           dto.OriginalValue,
		OriginalDurationDays:    dto.OriginalDurationDays,
		StartDate:               start,
		Status:                  dto.Status,
		ServiceOrderNumber:      dto.ServiceOrderNumber,
		ServiceOrderDate:        osDate,
		ServiceOrderDescription: dto.ServiceOrderDescription,
		Manager:                 dto.Manager,
	})
	if err != nil {
		return err
	}
	return c.JSON(contract)
}

func DeleteContract(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeleteContract(tx, scope, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---- Amendments

type amendmentDTO struct {
	Kind          models.AmendmentKind `json:"kind" validate:"required,oneof=TERM VALUE BOTH SUSPENSION"`
	Number        *string              `json:"number" validate:"omitempty,max=20"`
	ApprovalDate  *string              `json:"approval_date" validate:"omitempty,datetime=2006-01-02"`
	DayDelta      int                  `json:"day_delta"`
	ValueDelta    decimal.Decimal      `json:"value_delta" validate:"cents"`
	Justification *string              `json:"justification"`
}

type amendmentPatchDTO struct {
	Kind          *models.AmendmentKind `json:"kind" validate:"omitempty,oneof=TERM VALUE BOTH SUSPENSION"`
	Number        *string               `json:"number" validate:"omitempty,max=20"`
	ApprovalDate  *string               `json:"approval_date" validate:"omitempty,datetime=2006-01-02"`
	DayDelta      *int                  `json:"day_delta"`
	ValueDelta    *decimal.Decimal      `json:"value_delta" validate:"omitempty,cents"`
	Justification *string               `json:"justification"`
}

func CreateAmendment(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto amendmentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	approved, err := optionalDate(dto.ApprovalDate, "approval_date")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	amendment, err := svc.CreateAmendment(tx, scope, contractID, services.AmendmentInput{
		Kind:          dto.Kind,
		Number:        dto.Number,
		ApprovalDate:  approved,
		DayDelta:      dto.DayDelta,
		ValueDelta:    dto.ValueDelta,
		Justification: dto.Justification,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(amendment)
}

func GetAmendments(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	amendments, err := svc.ListAmendments(tx, scope, contractID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"amendments": amendments, "message": "success"})
}

func GetAmendment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	amendment, err := svc.GetAmendment(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(amendment)
}

func UpdateAmendment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto amendmentPatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	approved, err := optionalDate(dto.ApprovalDate, "approval_date")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	amendment, err := svc.UpdateAmendment(tx, scope, id, services.AmendmentPatch{
		Kind:          dto.Kind,
		Number:        dto.Number,
		ApprovalDate:  approved,
		DayDelta:      dto.DayDelta,
		ValueDelta:    dto.ValueDelta,
		Justification: dto.Justification,
	})
	if err != nil {
		return err
	}
	return c.JSON(amendment)
}

func DeleteAmendment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeleteAmendment(tx, scope, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---- Participants

type participantDTO struct {
	CompanyID uint            `json:"company_id" validate:"required"`
	Share     decimal.Decimal `json:"share" validate:"percent,cents"`
	IsLeader  bool            `json:"is_leader"`
}

type participantsDTO struct {
	Participants []participantDTO `json:"participants" validate:"dive"`
}

func ReplaceParticipants(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto participantsDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	in := make([]services.ParticipantInput, 0, len(dto.Participants))
	for _, p := range dto.Participants {
		in = append(in, services.ParticipantInput{CompanyID: p.CompanyID, Share: p.Share, IsLeader: p.IsLeader})
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if _, err := svc.ReplaceParticipants(tx, scope, contractID, in); err != nil {
		return err
	}
	participants, err := svc.ListParticipants(tx, scope, contractID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"participants": participants, "message": "success"})
}

func ClearParticipants(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.ClearParticipants(tx, scope, contractID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func GetParticipants(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	participants, err := svc.ListParticipants(tx, scope, contractID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"participants": participants, "message": "success"})
}

// ---- Tax overrides

type taxOverrideDTO struct {
	Kind models.TaxKind `json:"kind" validate:"required,oneof=ISS INSS IRRF CSLL PIS COFINS"`
	Rate decimal.Decimal `json:"rate" validate:"percent,cents"`
	Base models.TaxBase  `json:"base" validate:"omitempty,oneof=GROSS NET"`
}

type taxOverridesDTO struct {
	Taxes []taxOverrideDTO `json:"taxes" validate:"dive"`
}

func ReplaceTaxOverrides(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto taxOverridesDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	in := make([]services.TaxOverrideInput, 0, len(dto.Taxes))
	for _, t := range dto.Taxes {
		in = append(in, services.TaxOverrideInput{Kind: t.Kind, Rate: t.Rate, Base: t.Base})
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	taxes, err := svc.ReplaceTaxOverrides(tx, scope, contractID, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"taxes": taxes, "message": "success"})
}

func GetTaxOverrides(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	taxes, err := svc.ListTaxOverrides(tx, scope, contractID)
	if err != nil {
		return err
	}
	rates, err := svc.ResolveRates(tx, contractID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"taxes": taxes, "effective_rates": rates, "message": "success"})
}
