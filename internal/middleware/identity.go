package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/uniportal/PortalBack/internal/models"
)

const (
	HeaderPortalRole   = "X-Portal-Role"
	HeaderPortalUserID = "X-Portal-User-ID"
)

// PortalIdentity copies the dashboard's role flag and user id into locals.
// It only checks shape; the portal has no credential to verify.
func PortalIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := models.Role(strings.ToLower(strings.TrimSpace(c.Get(HeaderPortalRole))))
		if !role.Valid() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid portal role",
			})
		}

		userID := strings.TrimSpace(c.Get(HeaderPortalUserID))
		if id, err := strconv.ParseInt(userID, 10, 64); err != nil || id <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid portal user id",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("role", string(role))

		return c.Next()
	}
}
