package helper

import (
	"github.com/gofiber/fiber/v2"
)

/* =========================================================
   JSON RESPONSE ENVELOPE
   Semua endpoint memakai bentuk yang sama:
   sukses  → {"message": "...", "data": ...}
   error   → {"error": "..."}
========================================================= */

func JsonOK(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func JsonCreated(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func JsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// JsonList: response list dengan blok pagination.
func JsonList(c *fiber.Ctx, message string, data interface{}, pagination interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    message,
		"data":       data,
		"pagination": pagination,
	})
}
