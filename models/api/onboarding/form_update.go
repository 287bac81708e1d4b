package onboardingapimodels

import (
	"time"

	"github.com/pkg/errors"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type UpdateLinkData struct {
	EmployeeID string          `json:"employee_id"`
	FormType   models.FormType `json:"form_type"`
	TTLHours   int             `json:"ttl_hours,omitempty"`
}

func (r UpdateLinkData) Validate() error {
	if r.EmployeeID == "" {
		return errors.New("employee_id is required")
	}
	if !r.FormType.IsKnown() {
		return errors.Errorf("unknown form type: %v", r.FormType)
	}
	if r.TTLHours < 0 {
		return errors.New("ttl_hours cannot be negative")
	}
	return nil
}

type FormUpdateSaveData struct {
	Payload   map[string]string `json:"payload"`
	Signature SignatureData     `json:"signature"`
}

func (r FormUpdateSaveData) Validate() error {
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	if len(r.Signature.Image) == 0 {
		return errors.New("signature image is required")
	}
	if r.Signature.AttestationText == "" {
		return errors.New("attestation_text is required")
	}
	return nil
}

type FormUpdateView struct {
	ID               string                  `json:"id"`
	EmployeeID       string                  `json:"employee_id"`
	FormType         models.FormType         `json:"form_type"`
	FormName         string                  `json:"form_name"`
	Status           models.FormUpdateStatus `json:"status"`
	ExpiresAt        time.Time               `json:"expires_at"`
	RequiresApproval bool                    `json:"requires_approval"`
	SubmittedAt      *time.Time              `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time              `json:"approved_at,omitempty"`
}

func FormUpdateConvert(rec dbmodels.FormUpdateSession) FormUpdateView {
	return FormUpdateView{
		ID:               rec.ID,
		EmployeeID:       rec.EmployeeID,
		FormType:         rec.FormType,
		FormName:         rec.FormType.ToHuman(),
		Status:           rec.Status,
		ExpiresAt:        rec.ExpiresAt,
		RequiresApproval: rec.FormType.RequiresApproval(),
		SubmittedAt:      rec.SubmittedAt,
		ApprovedAt:       rec.ApprovedAt,
	}
}
