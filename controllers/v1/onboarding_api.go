package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"onboarding-backend/controllers"
	docassembly "onboarding-backend/lib/doc-assembly"
	onboardinghandler "onboarding-backend/lib/onboarding"
	"onboarding-backend/lib/signature"
	authutils "onboarding-backend/lib/utils/auth-utils"
	"onboarding-backend/middleware"
	"onboarding-backend/models"
	apimodels "onboarding-backend/models/api"
	onboardingapimodels "onboarding-backend/models/api/onboarding"
)

type onboardingApiController struct {
	controllers.BaseAPIController
}

func InitOnboardingApiRouters(app *fiber.App) {
	controller := onboardingApiController{}
	app.Route("onboarding", func(router fiber.Router) {
		router.Post("", middleware.HRRoleRequired(), controller.initiate)
		router.Get("pending/manager", middleware.ManagerRoleRequired(), controller.pendingManager)
		router.Get("pending/hr", middleware.HRRoleRequired(), controller.pendingHR)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("step", controller.completeStep)
			idRoute.Post("identity-document", controller.attachIdentityDocument)
			idRoute.Post("signature", controller.captureSignature)
			idRoute.Put("submit", controller.submit)
			idRoute.Put("verify", middleware.ManagerRoleRequired(), controller.managerVerify)
			idRoute.Put("hr-review", middleware.HRRoleRequired(), controller.openHRReview)
			idRoute.Put("approve", middleware.HRRoleRequired(), controller.approve)
			idRoute.Put("reject", middleware.ManagerRoleRequired(), controller.reject)
			idRoute.Get("documents", controller.listDocuments)
			idRoute.Get("documents/:form_type/latest", controller.getLatestDocument)
		})
	})
}

func actorFromCtx(ctx *fiber.Ctx) onboardinghandler.Actor {
	return onboardinghandler.Actor{
		ID:   authutils.GetUserID(ctx),
		Name: authutils.GetUserName(ctx),
		Role: authutils.GetUserRole(ctx),
	}
}

// @Summary Initiate onboarding
// @Tags Onboarding
// @Description Creates a new onboarding session for a hired employee
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 onboardingapimodels.InitiateData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding [post]
func (c *onboardingApiController) initiate(ctx *fiber.Ctx) error {
	var payload onboardingapimodels.InitiateData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := onboardinghandler.Instance.Initiate(actorFromCtx(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "onboarding initiation error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Get session
// @Tags Onboarding
// @Description Session state with completed steps and deadlines
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=onboardingapimodels.SessionView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id} [get]
func (c *onboardingApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := onboardinghandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "session read error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Complete step
// @Tags Onboarding
// @Description Saves one onboarding step; identical resubmission is a no-op
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 onboardingapimodels.StepCompleteData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 422 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/step [put]
func (c *onboardingApiController) completeStep(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload onboardingapimodels.StepCompleteData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	warnings, err := onboardinghandler.Instance.CompleteStep(id, actorFromCtx(ctx), payload.Step, payload.Payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "step completion error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(warnings))
}

// @Summary Scan identity document
// @Tags Onboarding
// @Description Runs a scanned identity document through OCR and returns extracted fields
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 onboardingapimodels.IdentityDocumentData	true	"request body"
// @Success 200 {object} apimodels.Response{data=map[string]string}
// @Failure 400 {object} apimodels.Response
// @Failure 502 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/identity-document [post]
func (c *onboardingApiController) attachIdentityDocument(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload onboardingapimodels.IdentityDocumentData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	fields, err := onboardinghandler.Instance.AttachIdentityDocument(ctx.UserContext(), id, actorFromCtx(ctx), payload.Kind, payload.Document)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "identity document processing error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(fields))
}

// @Summary Capture signature
// @Tags Onboarding
// @Description Captures a digital signature; a re-sign supersedes the prior one
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 onboardingapimodels.SignatureData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/signature [post]
func (c *onboardingApiController) captureSignature(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload onboardingapimodels.SignatureData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	signatureID, err := signature.Instance.Capture(signature.CaptureData{
		SessionID:       id,
		FormType:        payload.FormType,
		SignerRole:      payload.SignerRole,
		Image:           payload.Image,
		OriginIP:        ctx.IP(),
		AttestationText: payload.AttestationText,
	})
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "signature capture error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(signatureID))
}

// @Summary Submit for manager review
// @Tags Onboarding
// @Description Moves the session to manager review once required steps are complete
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/submit [put]
func (c *onboardingApiController) submit(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = onboardinghandler.Instance.TransitionToManagerReview(id, actorFromCtx(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "submission error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Manager verification
// @Tags Onboarding
// @Description Records the employer-side verification of the employee's documents
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 onboardingapimodels.ManagerVerificationData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 422 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/verify [put]
func (c *onboardingApiController) managerVerify(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload onboardingapimodels.ManagerVerificationData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = onboardinghandler.Instance.CompleteManagerVerification(id, actorFromCtx(ctx), payload.Payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "manager verification error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Open HR review
// @Tags Onboarding
// @Description Moves a manager-completed session into HR review
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/hr-review [put]
func (c *onboardingApiController) openHRReview(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = onboardinghandler.Instance.OpenHRReview(id, actorFromCtx(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "HR review transition error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Approve onboarding
// @Tags Onboarding
// @Description Assembles the final signed packet and closes the session
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 502 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/approve [put]
func (c *onboardingApiController) approve(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = onboardinghandler.Instance.Approve(ctx.UserContext(), id, actorFromCtx(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "approval error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Reject onboarding
// @Tags Onboarding
// @Description Terminates the session with a reason, from any active phase
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 onboardingapimodels.RejectData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/reject [put]
func (c *onboardingApiController) reject(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload onboardingapimodels.RejectData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = onboardinghandler.Instance.Reject(id, actorFromCtx(ctx), payload.Reason)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "rejection error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Pending manager reviews
// @Tags Onboarding
// @Description Sessions waiting for manager action
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]onboardingapimodels.SessionView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/pending/manager [get]
func (c *onboardingApiController) pendingManager(ctx *fiber.Ctx) error {
	list, err := onboardinghandler.Instance.GetPendingManagerReviews()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "pending list error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Pending HR approvals
// @Tags Onboarding
// @Description Sessions waiting for HR action
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]onboardingapimodels.SessionView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/pending/hr [get]
func (c *onboardingApiController) pendingHR(ctx *fiber.Ctx) error {
	list, err := onboardinghandler.Instance.GetPendingHRApprovals()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "pending list error")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary List generated documents
// @Tags Onboarding
// @Description All generated document versions for the session
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=[]onboardingapimodels.DocumentView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/documents [get]
func (c *onboardingApiController) listDocuments(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := docassembly.Instance.ListBySession(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "document list error")
	}
	views := make([]onboardingapimodels.DocumentView, 0, len(list))
	for _, rec := range list {
		views = append(views, onboardingapimodels.DocumentConvert(rec))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(views))
}

// @Summary Download latest document
// @Tags Onboarding
// @Description Latest PDF version of the given form
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param   form_type   		path    string  				    	true         "form type"
// @Success 200 {file} binary
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 502 {object} apimodels.Response
// @router /api/v1/onboarding/{id}/documents/{form_type}/latest [get]
func (c *onboardingApiController) getLatestDocument(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	formType := models.FormType(ctx.Params("form_type"))
	if !formType.IsKnown() {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("unknown form type"))
	}
	rec, body, err := docassembly.Instance.GetLatest(ctx.UserContext(), id, formType)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "document download error")
	}
	if rec == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError("document not found"))
	}
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	return ctx.Status(fiber.StatusOK).Send(body)
}
