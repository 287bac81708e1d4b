package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"onboarding-backend/controllers"
	formupdate "onboarding-backend/lib/form-update"
	authutils "onboarding-backend/lib/utils/auth-utils"
	"onboarding-backend/middleware"
	apimodels "onboarding-backend/models/api"
	onboardingapimodels "onboarding-backend/models/api/onboarding"
)

type formUpdateApiController struct {
	controllers.BaseAPIController
}

// InitFormUpdateApiRouters mounts the HR-side endpoints for issuing and
// approving form updates.
func InitFormUpdateApiRouters(app *fiber.App) {
	controller := formUpdateApiController{}
	app.Route("form-update", func(router fiber.Router) {
		router.Post("link", middleware.HRRoleRequired(), controller.generateLink)
		router.Put(":id/approve", middleware.HRRoleRequired(), controller.approve)
	})
}

// InitFormUpdatePublicRouters mounts the token-authenticated endpoints:
// the capability token in the path is the whole credential, no JWT.
func InitFormUpdatePublicRouters(app *fiber.App) {
	controller := formUpdateApiController{}
	app.Route("form-update", func(router fiber.Router) {
		router.Get(":token", controller.validate)
		router.Post(":token", controller.save)
	})
}

func updateActorFromCtx(ctx *fiber.Ctx) formupdate.Actor {
	return formupdate.Actor{
		ID:   authutils.GetUserID(ctx),
		Name: authutils.GetUserName(ctx),
		Role: authutils.GetUserRole(ctx),
	}
}

// @Summary Issue update link
// @Tags Form update
// @Description Mints a single-form update token and mails the link to the employee
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 onboardingapimodels.UpdateLinkData	true	"request body"
// @Success 200 {object} apimodels.Response{data=onboardingapimodels.FormUpdateView}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/form-update/link [post]
func (c *formUpdateApiController) generateLink(ctx *fiber.Ctx) error {
	var payload onboardingapimodels.UpdateLinkData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formupdate.Instance.GenerateUpdateLink(updateActorFromCtx(ctx), payload.EmployeeID, payload.FormType, payload.TTLHours)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "update link issue error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Validate update token
// @Tags Form update
// @Description Resolves the token into the update session it scopes
// @Param   token       		path    string  				    	true         "capability token"
// @Success 200 {object} apimodels.Response{data=onboardingapimodels.FormUpdateView}
// @Failure 404 {object} apimodels.Response
// @Failure 410 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/public/form-update/{token} [get]
func (c *formUpdateApiController) validate(ctx *fiber.Ctx) error {
	token := ctx.Params("token")
	resp, err := formupdate.Instance.ValidateUpdateToken(token)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "token validation error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Save form update
// @Tags Form update
// @Description Consumes the token: validates the payload, captures the signature, rebuilds the document
// @Param   token       		path    string  				    	true         "capability token"
// @Param	body body	 onboardingapimodels.FormUpdateSaveData	true	"request body"
// @Success 200 {object} apimodels.Response{data=onboardingapimodels.FormUpdateView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 410 {object} apimodels.Response
// @Failure 422 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/public/form-update/{token} [post]
func (c *formUpdateApiController) save(ctx *fiber.Ctx) error {
	token := ctx.Params("token")
	var payload onboardingapimodels.FormUpdateSaveData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formupdate.Instance.SaveFormUpdate(ctx.UserContext(), token, formupdate.SaveData{
		Payload:         payload.Payload,
		SignatureImage:  payload.Signature.Image,
		AttestationText: payload.Signature.AttestationText,
		OriginIP:        ctx.IP(),
	})
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "form update save error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Approve form update
// @Tags Form update
// @Description Counter-approves a submitted wage-affecting update
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=onboardingapimodels.FormUpdateView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/form-update/{id}/approve [put]
func (c *formUpdateApiController) approve(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formupdate.Instance.ApproveFormUpdate(ctx.UserContext(), id, updateActorFromCtx(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "form update approval error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}
