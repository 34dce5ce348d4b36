package controllers

import (
	"context"
	"time"

	"contratos-backend/database"
	"contratos-backend/services"
	"contratos-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReceiptStore is the object storage used for payment receipts.
type ReceiptStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var (
	svc      *services.Service
	receipts ReceiptStore
)

// Setup injects the service and the (optional) receipt store used by the handlers.
func Setup(s *services.Service, store ReceiptStore) {
	svc = s
	receipts = store
}

func txScope(c *fiber.Ctx) (*gorm.DB, services.Scope, error) {
	tx, err := database.FromCtx(c)
	if err != nil {
		return nil, services.Scope{}, err
	}
	scope, ok := c.Locals("scope").(services.Scope)
	if !ok {
		return nil, services.Scope{}, fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
	}
	return tx, scope, nil
}

func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func pageOf(c *fiber.Ctx) services.Page {
	return services.Page{
		Limit:  utils.QueryInt(c.Query("limit"), 50),
		Offset: utils.QueryInt(c.Query("offset"), 0),
	}
}

func dateField(s string, field string) (time.Time, error) {
	d, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" must be YYYY-MM-DD")
	}
	return d, nil
}

func optionalDate(s *string, field string) (*time.Time, error) {
	d, err := utils.ParseDatePtr(s)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, field+" must be YYYY-MM-DD")
	}
	return d, nil
}
