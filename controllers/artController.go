package controllers

import (
	"contratos-backend/middlewares"
	"contratos-backend/services"

	"github.com/gofiber/fiber/v2"
)

type artDTO struct {
	ProfessionalName string  `json:"professional_name" validate:"required,max=100"`
	Number           string  `json:"number" validate:"required,max=30"`
	Finished         bool    `json:"finished"`
	FinishedOn       *string `json:"finished_on" validate:"omitempty,datetime=2006-01-02"`
}

type artPatchDTO struct {
	ProfessionalName *string `json:"professional_name" validate:"omitempty,max=100"`
	Number           *string `json:"number" validate:"omitempty,max=30"`
	Finished         *bool   `json:"finished"`
	FinishedOn       *string `json:"finished_on" validate:"omitempty,datetime=2006-01-02"`
}

func CreateART(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto artDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	finishedOn, err := optionalDate(dto.FinishedOn, "finished_on")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	art, err := svc.CreateART(tx, scope, contractID, services.ARTInput{
		ProfessionalName: dto.ProfessionalName,
		Number:           dto.Number,
		Finished:         dto.Finished,
		FinishedOn:       finishedOn,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(art)
}

func GetARTs(c *fiber.Ctx) error {
	contractID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	arts, err := svc.ListARTs(tx, scope, contractID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"arts": arts, "message": "success"})
}

func GetART(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	art, err := svc.GetART(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(art)
}

func UpdateART(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto artPatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	finishedOn, err := optionalDate(dto.FinishedOn, "finished_on")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	art, err := svc.UpdateART(tx, scope, id, services.ARTPatch{
		ProfessionalName: dto.ProfessionalName,
		Number:           dto.Number,
		Finished:         dto.Finished,
		FinishedOn:       finishedOn,
	})
	if err != nil {
		return err
	}
	return c.JSON(art)
}

func DeleteART(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeleteART(tx, scope, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
