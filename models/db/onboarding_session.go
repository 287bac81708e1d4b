package dbmodels

import (
	"time"

	"github.com/lib/pq"

	"onboarding-backend/models"
)

type OnboardingSession struct {
	BaseModel
	EmployeeID string    `gorm:"type:varchar(36);index"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID"`
	Phase      models.OnboardingPhase `gorm:"type:varchar(32);index"`
	Position   string                 `gorm:"type:varchar(255)"`
	StartDate  time.Time

	CompletedSteps pq.StringArray `gorm:"type:text[]"`
	StepData       StepPayloads   `gorm:"type:jsonb"`
	StepHashes     StepHashes     `gorm:"type:jsonb"`
	// fields extracted from scanned identity documents, kept separate from
	// human-entered step data so the merge precedence stays visible
	OCRData FormPayload `gorm:"type:jsonb"`

	IssuedAt        time.Time
	ExpiresAt       time.Time
	ManagerDeadline time.Time

	// set when manager verification lands after ManagerDeadline;
	// whether that blocks is a policy decision, the flag is always recorded
	DeadlineExceeded bool

	RejectReason string `gorm:"type:varchar(1024)"`
}

func (s OnboardingSession) IsStepCompleted(step models.OnboardingStep) bool {
	for _, done := range s.CompletedSteps {
		if done == string(step) {
			return true
		}
	}
	return false
}

func (s OnboardingSession) MissingRequiredSteps() []models.OnboardingStep {
	missing := []models.OnboardingStep{}
	for _, step := range models.RequiredSteps {
		if !s.IsStepCompleted(step) {
			missing = append(missing, step)
		}
	}
	return missing
}

// IsExpiredAt implements lazy expiry: the stored phase is irrelevant
// once the capability window has closed.
func (s OnboardingSession) IsExpiredAt(now time.Time) bool {
	return !s.Phase.IsTerminal() && now.After(s.ExpiresAt)
}
