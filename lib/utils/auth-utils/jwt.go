package authutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"onboarding-backend/models"
)

func GetClaims(ctx *fiber.Ctx) jwt.MapClaims {
	token, ok := ctx.Locals("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	return token.Claims.(jwt.MapClaims)
}

func GetUserID(ctx *fiber.Ctx) string {
	claims := GetClaims(ctx)
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func GetUserName(ctx *fiber.Ctx) string {
	claims := GetClaims(ctx)
	if name, ok := claims["name"].(string); ok {
		return name
	}
	return ""
}

func GetUserRole(ctx *fiber.Ctx) models.ActorRole {
	claims := GetClaims(ctx)
	if role, ok := claims["role"].(string); ok {
		return models.ActorRole(role)
	}
	return ""
}
