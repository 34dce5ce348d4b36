package controllers

import (
	"errors"

	"contratos-backend/database"
	"contratos-backend/middlewares"
	"contratos-backend/models"
	"contratos-backend/services"
	"contratos-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type loginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Login(c *fiber.Ctx) error {
	var dto loginDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	user, err := svc.Authenticate(db, dto.Email, dto.Password)
	if errors.Is(err, services.ErrNotFound) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return err
	}
	token, err := middlewares.GenerateJWT(user.Id, string(user.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func Me(c *fiber.Ctx) error {
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	user, err := svc.GetUser(tx, c.Locals("userID").(string))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user, "all_contracts": scope.All, "contract_ids": scope.ContractIDs})
}

type createUserDTO struct {
	Name     string      `json:"name" validate:"required,max=120"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role" validate:"required,oneof=ADMIN MANAGER FINANCE AUDITOR"`
}

func CreateUser(c *fiber.Ctx) error {
	var dto createUserDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	user, err := svc.CreateUser(tx, services.UserInput{Name: dto.Name, Email: dto.Email, Password: dto.Password, Role: dto.Role})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func GetUsers(c *fiber.Ctx) error {
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	users, err := svc.ListUsers(tx, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users, "message": "success"})
}

type userActiveDTO struct {
	Active *bool `json:"active" validate:"required"`
}

func SetUserActive(c *fiber.Ctx) error {
	var dto userActiveDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	user, err := svc.SetUserActive(tx, c.Params("id"), *dto.Active)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

type grantDTO struct {
	ContractIDs []uint `json:"contract_ids" validate:"dive,gt=0"`
}

func GrantContracts(c *fiber.Ctx) error {
	var dto grantDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	tx, _, err := txScope(c)
	if err != nil {
		return err
	}
	ids, err := svc.GrantContracts(tx, c.Params("id"), dto.ContractIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"contract_ids": ids, "message": "success"})
}
