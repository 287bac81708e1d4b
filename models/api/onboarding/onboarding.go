package onboardingapimodels

import (
	"time"

	"github.com/pkg/errors"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type InitiateData struct {
	EmployeeID string    `json:"employee_id"`
	Position   string    `json:"position"`
	StartDate  time.Time `json:"start_date"`
}

func (r InitiateData) Validate() error {
	if r.EmployeeID == "" {
		return errors.New("employee_id is required")
	}
	if r.Position == "" {
		return errors.New("position is required")
	}
	if r.StartDate.IsZero() {
		return errors.New("start_date is required")
	}
	return nil
}

type StepCompleteData struct {
	Step    models.OnboardingStep `json:"step"`
	Payload map[string]string     `json:"payload"`
}

func (r StepCompleteData) Validate() error {
	if !r.Step.IsKnown() {
		return errors.Errorf("unknown step: %v", r.Step)
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

type ManagerVerificationData struct {
	Payload map[string]string `json:"payload"`
}

func (r ManagerVerificationData) Validate() error {
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

type RejectData struct {
	Reason string `json:"reason"`
}

func (r RejectData) Validate() error {
	if r.Reason == "" {
		return errors.New("reason is required")
	}
	return nil
}

type IdentityDocumentData struct {
	Kind models.DocumentKind `json:"kind"`
	// base64 handled by fiber body parser at the controller
	Document []byte `json:"document"`
}

func (r IdentityDocumentData) Validate() error {
	if r.Kind == "" {
		return errors.New("kind is required")
	}
	if len(r.Document) == 0 {
		return errors.New("document is required")
	}
	return nil
}

type SignatureData struct {
	FormType        models.FormType   `json:"form_type"`
	SignerRole      models.SignerRole `json:"signer_role"`
	Image           []byte            `json:"image"`
	AttestationText string            `json:"attestation_text"`
}

func (r SignatureData) Validate() error {
	if !r.FormType.IsKnown() {
		return errors.Errorf("unknown form type: %v", r.FormType)
	}
	if r.SignerRole != models.SignerEmployee && r.SignerRole != models.SignerManager {
		return errors.Errorf("unknown signer role: %v", r.SignerRole)
	}
	if len(r.Image) == 0 {
		return errors.New("image is required")
	}
	if r.AttestationText == "" {
		return errors.New("attestation_text is required")
	}
	return nil
}

type SessionView struct {
	ID               string                 `json:"id"`
	EmployeeID       string                 `json:"employee_id"`
	EmployeeName     string                 `json:"employee_name,omitempty"`
	Phase            models.OnboardingPhase `json:"phase"`
	PhaseName        string                 `json:"phase_name"`
	Position         string                 `json:"position"`
	StartDate        time.Time              `json:"start_date"`
	CompletedSteps   []string               `json:"completed_steps"`
	MissingSteps     []string               `json:"missing_required_steps"`
	IssuedAt         time.Time              `json:"issued_at"`
	ExpiresAt        time.Time              `json:"expires_at"`
	ManagerDeadline  time.Time              `json:"manager_deadline"`
	DeadlineExceeded bool                   `json:"deadline_exceeded"`
	RejectReason     string                 `json:"reject_reason,omitempty"`
}

func SessionConvert(rec dbmodels.OnboardingSession) SessionView {
	view := SessionView{
		ID:               rec.ID,
		EmployeeID:       rec.EmployeeID,
		Phase:            rec.Phase,
		PhaseName:        rec.Phase.ToHuman(),
		Position:         rec.Position,
		StartDate:        rec.StartDate,
		CompletedSteps:   rec.CompletedSteps,
		IssuedAt:         rec.IssuedAt,
		ExpiresAt:        rec.ExpiresAt,
		ManagerDeadline:  rec.ManagerDeadline,
		DeadlineExceeded: rec.DeadlineExceeded,
		RejectReason:     rec.RejectReason,
	}
	if rec.Employee != nil {
		view.EmployeeName = rec.Employee.FullName()
	}
	missing := rec.MissingRequiredSteps()
	view.MissingSteps = make([]string, 0, len(missing))
	for _, step := range missing {
		view.MissingSteps = append(view.MissingSteps, string(step))
	}
	return view
}

type AuditEntryView struct {
	Seq       int64                  `json:"seq"`
	Actor     string                 `json:"actor"`
	ActorRole models.ActorRole       `json:"actor_role"`
	Action    models.AuditAction     `json:"action"`
	Before    models.OnboardingPhase `json:"before,omitempty"`
	After     models.OnboardingPhase `json:"after,omitempty"`
	Details   string                 `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func AuditEntryConvert(rec dbmodels.AuditEntry) AuditEntryView {
	return AuditEntryView{
		Seq:       rec.Seq,
		Actor:     rec.Actor,
		ActorRole: rec.ActorRole,
		Action:    rec.Action,
		Before:    rec.Before,
		After:     rec.After,
		Details:   rec.Changes.Description,
		CreatedAt: rec.CreatedAt,
	}
}

type DocumentView struct {
	ID          string          `json:"id"`
	FormType    models.FormType `json:"form_type"`
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Provenance  []ProvenanceView `json:"provenance"`
}

type ProvenanceView struct {
	Field  string `json:"field"`
	Source string `json:"source"`
}

func DocumentConvert(rec dbmodels.GeneratedDocument) DocumentView {
	view := DocumentView{
		ID:          rec.ID,
		FormType:    rec.FormType,
		Version:     rec.Version,
		GeneratedAt: rec.GeneratedAt,
	}
	view.Provenance = make([]ProvenanceView, 0, len(rec.Provenance))
	for _, p := range rec.Provenance {
		view.Provenance = append(view.Provenance, ProvenanceView{Field: p.Field, Source: string(p.Source)})
	}
	return view
}
