package authhelper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	ErrNoUserInContext    = errors.New("no authenticated user in request context")
	ErrNoAcademyInContext = errors.New("no academy scope in request context")
)

// GetUserID membaca user id yang ditaruh auth middleware di locals.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, ErrNoUserInContext
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNoUserInContext
	}
	return id, nil
}

func GetUserRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return role
}

// GetAcademyID me-resolve tenant scope request. Semua query tenant-scoped
// WAJIB memakai id ini sebagai parameter eksplisit — tidak ada scoping global.
func GetAcademyID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("academy_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, ErrNoAcademyInContext
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNoAcademyInContext
	}
	return id, nil
}
