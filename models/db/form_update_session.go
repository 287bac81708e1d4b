package dbmodels

import (
	"time"

	"onboarding-backend/models"
)

// FormUpdateSession is a narrow-scope capability for updating one form
// outside the main onboarding flow. It references the employee, not the
// onboarding session: updates must outlive any single onboarding run.
type FormUpdateSession struct {
	BaseModel
	EmployeeID string    `gorm:"type:varchar(36);index:idx_employee_form"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID"`
	FormType   models.FormType         `gorm:"type:varchar(32);index:idx_employee_form"`
	Token      string                  `gorm:"type:varchar(64);uniqueIndex"`
	Status     models.FormUpdateStatus `gorm:"type:varchar(16)"`
	ExpiresAt  time.Time
	Payload    FormPayload `gorm:"type:jsonb"`

	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	ApprovedBy  string `gorm:"type:varchar(255)"`
}

func (s FormUpdateSession) IsExpiredAt(now time.Time) bool {
	return !s.Status.IsTerminal() && now.After(s.ExpiresAt)
}

// IsActive reports whether this session still blocks issuing a new one
// for the same (employee, form type) pair.
func (s FormUpdateSession) IsActive(now time.Time) bool {
	if s.IsExpiredAt(now) || s.Status.IsTerminal() {
		return false
	}
	if s.Status == models.FormUpdateSubmitted && !s.FormType.RequiresApproval() {
		// self-terminal on submission
		return false
	}
	return true
}
