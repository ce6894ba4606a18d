package handler

import (
	"errors"

	"go-inventory-ledger/pkg/e"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, e.ErrDuplicateSKU):
		return fiber.StatusConflict
	case errors.Is(err, e.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, e.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, e.ErrInsufficientStock):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "Internal Server Error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
