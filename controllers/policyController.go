package controllers

import (
	"contratos-backend/middlewares"
	"contratos-backend/models"
	"contratos-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type policyDTO struct {
	InsurerID    uint              `json:"insurer_id" validate:"required"`
	Kind         models.PolicyKind `json:"kind" validate:"required,oneof=PERFORMANCE_BOND ENGINEERING_RISK CIVIL_LIABILITY"`
	PolicyNumber *string           `json:"policy_number" validate:"omitempty,max=50"`
	DueDate      string            `json:"due_date" validate:"required,datetime=2006-01-02"`
	Value        *decimal.Decimal  `json:"value" validate:"omitempty,dgte0,cents"`
}

type policyPatchDTO struct {
	InsurerID    *uint              `json:"insurer_id" validate:"omitempty,gt=0"`
	Kind         *models.PolicyKind `json:"kind" validate:"omitempty,oneof=PERFORMANCE_BOND ENGINEERING_RISK CIVIL_LIABILITY"`
	PolicyNumber *string            `json:"policy_number" validate:"omitempty,max=50"`
	DueDate      *string            `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Value        *decimal.Decimal   `json:"value" validate:"omitempty,dgte0,cents"`
}

func CreatePolicy(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto policyDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	due, err := dateField(dto.DueDate, "due_date")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	policy, err := svc.CreatePolicy(tx, scope, contractID, services.PolicyInput{
		InsurerID:    dto.InsurerID,
		Kind:         dto.Kind,
		PolicyNumber: dto.PolicyNumber,
		DueDate:      due,
		Value:        dto.Value,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(policy)
}

func GetPolicies(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	policies, err := svc.ListPolicies(tx, scope, contractID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"policies": policies, "message": "success"})
}

func GetPolicy(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	policy, err := svc.GetPolicy(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(policy)
}

func UpdatePolicy(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto policyPatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
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
	policy, err := svc.UpdatePolicy(tx, scope, id, services.PolicyPatch{
		InsurerID:    dto.InsurerID,
		Kind:         dto.Kind,
		PolicyNumber: dto.PolicyNumber,
		DueDate:      due,
		Value:        dto.Value,
	})
	if err != nil {
		return err
	}
	return c.JSON(policy)
}

func DeletePolicy(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeletePolicy(tx, scope, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
