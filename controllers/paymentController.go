package controllers

import (
	"io"
	"time"

	"contratos-backend/middlewares"
	"contratos-backend/services"
	"contratos-backend/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type paymentDTO struct {
	PaidOn string          `json:"paid_on" validate:"required,datetime=2006-01-02"`
	Amount decimal.Decimal `json:"amount" validate:"dgt0,cents"`
	Notes  *string         `json:"notes"`
}

type paymentPatchDTO struct {
	PaidOn *string          `json:"paid_on" validate:"omitempty,datetime=2006-01-02"`
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,dgt0,cents"`
	Notes  *string          `json:"notes"`
}

func CreatePayment(c *fiber.Ctx) error {
	invoiceID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto paymentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	paidOn, err := dateField(dto.PaidOn, "paid_on")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	payment, err := svc.CreatePayment(tx, scope, invoiceID, services.PaymentInput{
		PaidOn: paidOn,
		Amount: dto.Amount,
		Notes:  dto.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

func ListPayments(c *fiber.Ctx) error {
	invoiceID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	payments, err := svc.ListPayments(tx, scope, invoiceID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payments": payments, "message": "success"})
}

func GetPayment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	payment, err := svc.GetPayment(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(payment)
}

func UpdatePayment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var dto paymentPatchDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	paidOn, err := optionalDate(dto.PaidOn, "paid_on")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	payment, err := svc.UpdatePayment(tx, scope, id, services.PaymentPatch{
		PaidOn: paidOn,
		Amount: dto.Amount,
		Notes:  dto.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(payment)
}

func DeletePayment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	if err := svc.DeletePayment(tx, scope, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func ReversePayment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	payment, err := svc.ReversePayment(tx, scope, id)
	if err != nil {
		return err
	}
	return c.JSON(payment)
}

// UploadReceipt stores a receipt file (multipart field "file") and links it to the payment.
func UploadReceipt(c *fiber.Ctx) error {
	if receipts == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "receipt storage not configured")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file")
	}
	if fh.Size > storage.MaxReceiptSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "receipt too large")
	}
	contentType, ok := storage.ContentTypeFor(fh.Filename)
	if !ok {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "receipt must be pdf, jpg, png or xml")
	}

	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	// make sure the payment is visible before touching storage
	if _, err := svc.GetPayment(tx, scope, id); err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, storage.MaxReceiptSize))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}

	key := storage.ReceiptKey(id, fh.Filename)
	if err := receipts.Upload(c.UserContext(), key, data, contentType); err != nil {
		return err
	}
	payment, err := svc.AttachReceipt(tx, scope, id, key)
	if err != nil {
		_ = receipts.Delete(c.UserContext(), key)
		return err
	}
	return c.JSON(payment)
}

// GetReceiptURL returns a short-lived download link for the payment's receipt.
func GetReceiptURL(c *fiber.Ctx) error {
	if receipts == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "receipt storage not configured")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, scope, err := txScope(c)
	if err != nil {
		return err
	}
	payment, err := svc.GetPayment(tx, scope, id)
	if err != nil {
		return err
	}
	if payment.ReceiptKey == nil {
		return fiber.NewError(fiber.StatusNotFound, "payment has no receipt")
	}
	ttl := 15 * time.Minute
	url, err := receipts.URL(c.UserContext(), *payment.ReceiptKey, ttl)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"url": url, "expires_in": int(ttl.Seconds())})
}
