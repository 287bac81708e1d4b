package apiv1

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"onboarding-backend/controllers"
	audithandler "onboarding-backend/lib/audit"
	"onboarding-backend/middleware"
	apimodels "onboarding-backend/models/api"
	onboardingapimodels "onboarding-backend/models/api/onboarding"
)

type auditApiController struct {
	controllers.BaseAPIController
}

func InitAuditApiRouters(app *fiber.App) {
	controller := auditApiController{}
	app.Route("audit", func(router fiber.Router) {
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", middleware.HRRoleRequired(), controller.list)
			idRoute.Get("export", middleware.HRRoleRequired(), controller.export)
		})
	})
}

// @Summary Audit trail
// @Tags Audit
// @Description Ordered history of every state change on the session
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=[]onboardingapimodels.AuditEntryView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/audit/{id} [get]
func (c *auditApiController) list(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := audithandler.Instance.List(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "audit trail read error")
	}
	views := make([]onboardingapimodels.AuditEntryView, 0, len(list))
	for _, rec := range list {
		views = append(views, onboardingapimodels.AuditEntryConvert(rec))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(views))
}

// @Summary Export audit trail
// @Tags Audit
// @Description Audit trail as an XLSX file for compliance review
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {file} binary
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/audit/{id}/export [get]
func (c *auditApiController) export(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	body, err := audithandler.Instance.ExportXLSX(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "audit export error")
	}
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=audit-%s.xlsx", id))
	return ctx.Status(fiber.StatusOK).Send(body)
}
