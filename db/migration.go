package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	dbmodels "onboarding-backend/models/db"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("running migrations")
	if err := DB.AutoMigrate(&dbmodels.Employee{}); err != nil {
		return errors.Wrap(err, "migration failed for Employee")
	}
	if err := DB.AutoMigrate(&dbmodels.OnboardingSession{}); err != nil {
		return errors.Wrap(err, "migration failed for OnboardingSession")
	}
	if err := DB.AutoMigrate(&dbmodels.FormUpdateSession{}); err != nil {
		return errors.Wrap(err, "migration failed for FormUpdateSession")
	}
	if err := DB.AutoMigrate(&dbmodels.DigitalSignature{}); err != nil {
		return errors.Wrap(err, "migration failed for DigitalSignature")
	}
	if err := DB.AutoMigrate(&dbmodels.AuditEntry{}); err != nil {
		return errors.Wrap(err, "migration failed for AuditEntry")
	}
	if err := DB.AutoMigrate(&dbmodels.GeneratedDocument{}); err != nil {
		return errors.Wrap(err, "migration failed for GeneratedDocument")
	}
	// partial unique indexes back the at-most-one-active invariants under
	// concurrent inserts; the handlers map the violation to the typed error
	err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_onboarding_sessions_one_active
		ON onboarding_sessions (employee_id)
		WHERE phase NOT IN ('approved', 'rejected', 'expired')`).Error
	if err != nil {
		return errors.Wrap(err, "index creation failed for active OnboardingSession")
	}
	err = DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_form_update_sessions_one_active
		ON form_update_sessions (employee_id, form_type)
		WHERE status IN ('pending', 'submitted')`).Error
	if err != nil {
		return errors.Wrap(err, "index creation failed for active FormUpdateSession")
	}
	log.Info("migrations finished")
	return nil
}
