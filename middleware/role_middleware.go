package middleware

import (
	"github.com/gofiber/fiber/v2"

	authutils "onboarding-backend/lib/utils/auth-utils"
	"onboarding-backend/models"
	apimodels "onboarding-backend/models/api"
)

func ManagerRoleRequired() fiber.Handler {
	return roleRequired(models.ActorManager, models.ActorHR)
}

func HRRoleRequired() fiber.Handler {
	return roleRequired(models.ActorHR)
}

func roleRequired(allowed ...models.ActorRole) fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		role := authutils.GetUserRole(ctx)
		for _, want := range allowed {
			if role == want {
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("operation not permitted"))
	}
}
