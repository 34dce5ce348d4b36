package middlewares

import (
	"contratos-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RequestTx opens a per-request DB transaction, committed when the handler chain
// succeeds and rolled back when it returns an error or panics.
// Order: run AFTER IsAuthenticatedHeader() and AFTER Idempotency() (so idempotency
// records aren't tied to the handler TX).
func RequestTx(db *gorm.DB, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return services.ClassifyDBError(tx.Error)
		}

		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				requestLogger(c, log).WithError(e).Error("tx commit failed")
				err = services.ClassifyDBError(e)
			}
		}()

		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}

// ResolveScope loads the caller's contract visibility into c.Locals("scope").
// Run AFTER RequestTx.
func ResolveScope(svc *services.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(string)
		tx, ok := c.Locals("tx").(*gorm.DB)
		if userID == "" || !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}
		scope, user, err := svc.ScopeFor(tx, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown or inactive user")
		}
		c.Locals("scope", scope)
		c.Locals("role", string(user.Role))
		return c.Next()
	}
}
