package middleware

import (
	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies the bearer token and stores the caller identity
// in the request locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(utils.LocalUserID, claims.UserID)
		c.Locals(utils.LocalRole, claims.Role)
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() fiber.Handler {
	return requireRole(models.RoleAdmin, "Forbidden - Admin access required")
}

// LearnerMiddleware must run after AuthMiddleware.
func LearnerMiddleware() fiber.Handler {
	return requireRole(models.RoleLearner, "Forbidden - Learner access required")
}

func requireRole(role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if utils.CurrentRole(c) != role {
			return utils.Forbidden(c, message)
		}
		return c.Next()
	}
}
