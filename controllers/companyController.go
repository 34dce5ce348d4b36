package controllers

import (
	"contratos-backend/middlewares"
	"contratos-backend/models"
	"contratos-backend/services"
	"contratos-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type companyDTO struct {
	LegalName string             `json:"legal_name" validate:"required,max=200"`
	TaxID     string             `json:"tax_id" validate:"required,max=18"`
	Kind      models.CompanyKind `json:"kind" validate:"required,oneof=HEADQUARTERS BRANCH CONSORTIUM_PARTNER SCP CLIENT INSURER"`
}

type companyPatchDTO struct {
	LegalName *string             `json:"legal_name" validate:"omitempty,max=200"`
	TaxID     *string             `json:"tax_id" validate:"omitempty,max=18"`
	Kind      *models.CompanyKind `json:"kind" validate:"omitempty,oneof=HEADQUARTERS BRANCH CONSORTIUM_PARTNER SCP CLIENT INSURER"`
}

func CreateCompany(c *fiber.Ctx) error {
	var dto companyDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	company, err := svc.CreateCompany(tx, services.CompanyInput{LegalName: dto.LegalName, TaxID: dto.TaxID, Kind: dto.Kind})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

func GetCompanies(c *fiber.Ctx) error {
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	companies, err := svc.ListCompanies(tx, models.CompanyKind(c.Query("kind")), pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"companies": companies, "message": "success"})
}

func GetCompany(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	company, err := svc.GetCompany(tx, id)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

func UpdateCompany(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto companyPatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	company, err := svc.UpdateCompany(tx, id, services.CompanyPatch{LegalName: dto.LegalName, TaxID: dto.TaxID, Kind: dto.Kind})
	if err != nil {
		return err
	}
	return c.JSON(company)
}

func DeleteCompany(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeleteCompany(tx, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
