package initializers

import (
	"context"

	"onboarding-backend/config"
	"onboarding-backend/fiberlog"
	audithandler "onboarding-backend/lib/audit"
	docassembly "onboarding-backend/lib/doc-assembly"
	formupdate "onboarding-backend/lib/form-update"
	"onboarding-backend/lib/notification"
	"onboarding-backend/lib/ocr"
	onboardinghandler "onboarding-backend/lib/onboarding"
	"onboarding-backend/lib/signature"
)

var LoggerConfig *fiberlog.Config

// InitAllServices wires the handlers in dependency order: infrastructure
// first, then leaf handlers, then the orchestrators that consume them.
func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitS3(ctx)
	InitSmtp()
	notification.NewHandler()
	ocr.NewHandler()
	signature.NewHandler()
	audithandler.NewHandler()
	docassembly.NewHandler()
	onboardinghandler.NewHandler()
	formupdate.NewHandler()
}
