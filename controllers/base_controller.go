package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	authutils "onboarding-backend/lib/utils/auth-utils"
	"onboarding-backend/models"
	apimodels "onboarding-backend/models/api"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("request body parse failed")
		return errors.New("unable to read request data")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetParamID(ctx, "id")
}

func (c *BaseAPIController) GetParamID(ctx *fiber.Ctx, name string) (string, error) {
	id := ctx.Params(name)
	if id == "" {
		return "", errors.Errorf("%v is not specified", name)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.Errorf("invalid id: %v", id)
	}
	return id, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path()).
		WithField("user_id", authutils.GetUserID(ctx))
}

// SendError maps domain errors onto HTTP statuses. Anything unmapped is
// an internal error with a generic message; the real cause stays in the
// log only.
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	if ruleErr, ok := models.AsComplianceError(err); ok {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(apimodels.NewRuleError(ruleErr.Error(), ruleErr.Violations))
	}
	switch {
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrTokenNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(err.Error()))
	case errors.Is(err, models.ErrTokenExpired):
		return ctx.Status(fiber.StatusGone).JSON(apimodels.NewError(err.Error()))
	case errors.Is(err, models.ErrInvalidPhase),
		errors.Is(err, models.ErrDuplicateActiveSession),
		errors.Is(err, models.ErrIncompleteRequiredSteps),
		errors.Is(err, models.ErrConflictingActiveUpdate),
		errors.Is(err, models.ErrMissingSignature),
		errors.Is(err, models.ErrDeadlineExceeded):
		return ctx.Status(fiber.StatusConflict).JSON(apimodels.NewError(err.Error()))
	case errors.Is(err, models.ErrExternalServiceUnavailable):
		return ctx.Status(fiber.StatusBadGateway).JSON(apimodels.NewError(err.Error()))
	}
	logger.WithError(err).Error(msg)
	return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError(msg))
}
