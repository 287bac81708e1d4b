package models

type OnboardingPhase string

const (
	PhaseEmployeeInProgress OnboardingPhase = "employee_in_progress"
	PhaseEmployeeCompleted  OnboardingPhase = "employee_completed"
	PhaseManagerReview      OnboardingPhase = "manager_review"
	PhaseManagerCompleted   OnboardingPhase = "manager_completed"
	PhaseHRReview           OnboardingPhase = "hr_review"
	PhaseApproved           OnboardingPhase = "approved"
	PhaseRejected           OnboardingPhase = "rejected"
	PhaseExpired            OnboardingPhase = "expired"
)

var phaseHumanName = map[OnboardingPhase]string{
	PhaseEmployeeInProgress: "Employee filling out forms",
	PhaseEmployeeCompleted:  "Employee forms completed",
	PhaseManagerReview:      "Manager review",
	PhaseManagerCompleted:   "Manager verification completed",
	PhaseHRReview:           "HR review",
	PhaseApproved:           "Approved",
	PhaseRejected:           "Rejected",
	PhaseExpired:            "Expired",
}

func (p OnboardingPhase) ToHuman() string {
	if human, exist := phaseHumanName[p]; exist {
		return human
	}
	return string(p)
}

func (p OnboardingPhase) IsTerminal() bool {
	return p == PhaseApproved || p == PhaseRejected || p == PhaseExpired
}

// forward edges of the workflow; reject/expire are handled separately
// because they are reachable from any non-terminal phase
var phaseOrder = map[OnboardingPhase]OnboardingPhase{
	PhaseEmployeeInProgress: PhaseEmployeeCompleted,
	PhaseEmployeeCompleted:  PhaseManagerReview,
	PhaseManagerReview:      PhaseManagerCompleted,
	PhaseManagerCompleted:   PhaseHRReview,
	PhaseHRReview:           PhaseApproved,
}

func (p OnboardingPhase) IsAllowChange(next OnboardingPhase) bool {
	if p.IsTerminal() {
		return false
	}
	if next == PhaseRejected || next == PhaseExpired {
		return true
	}
	return phaseOrder[p] == next
}

type OnboardingStep string

const (
	StepPersonalInfo     OnboardingStep = "personal_info"
	StepW4               OnboardingStep = "w4"
	StepI9Section1       OnboardingStep = "i9_section1"
	StepDirectDeposit    OnboardingStep = "direct_deposit"
	StepPolicyAck        OnboardingStep = "policy_ack"
	StepEmergencyContact OnboardingStep = "emergency_contact"
)

// RequiredSteps is the minimal step set gating the transition to manager review.
var RequiredSteps = []OnboardingStep{
	StepPersonalInfo,
	StepW4,
	StepI9Section1,
	StepPolicyAck,
}

var knownSteps = map[OnboardingStep]bool{
	StepPersonalInfo:     true,
	StepW4:               true,
	StepI9Section1:       true,
	StepDirectDeposit:    true,
	StepPolicyAck:        true,
	StepEmergencyContact: true,
}

func (s OnboardingStep) IsKnown() bool {
	return knownSteps[s]
}

// FormType maps a step onto its compliance rule set and document template.
// Steps without a legal document (emergency contact) share the personal data form.
func (s OnboardingStep) FormType() FormType {
	switch s {
	case StepW4:
		return FormTypeW4
	case StepI9Section1:
		return FormTypeI9
	case StepDirectDeposit:
		return FormTypeDirectDeposit
	case StepPolicyAck:
		return FormTypePolicyAck
	default:
		return FormTypePersonalData
	}
}

type FormType string

const (
	FormTypeW4               FormType = "w4"
	FormTypeStateWithholding FormType = "state_w4"
	FormTypeI9               FormType = "i9"
	FormTypeDirectDeposit    FormType = "direct_deposit"
	FormTypePolicyAck        FormType = "policy_ack"
	FormTypePersonalData     FormType = "personal_data"
)

var formTypeHumanName = map[FormType]string{
	FormTypeW4:               "Federal tax withholding (W-4)",
	FormTypeStateWithholding: "State tax withholding",
	FormTypeI9:               "Employment eligibility (I-9)",
	FormTypeDirectDeposit:    "Direct deposit authorization",
	FormTypePolicyAck:        "Policy acknowledgment",
	FormTypePersonalData:     "Personal data",
}

func (f FormType) ToHuman() string {
	if human, exist := formTypeHumanName[f]; exist {
		return human
	}
	return string(f)
}

func (f FormType) IsKnown() bool {
	_, exist := formTypeHumanName[f]
	return exist
}

// RequiresApproval reports whether a standalone update of this form
// needs a counter-signature before it becomes effective.
// Wage-affecting forms do, acknowledgments do not.
func (f FormType) RequiresApproval() bool {
	switch f {
	case FormTypeW4, FormTypeStateWithholding, FormTypeDirectDeposit:
		return true
	}
	return false
}

type FormUpdateStatus string

const (
	FormUpdatePending   FormUpdateStatus = "pending"
	FormUpdateSubmitted FormUpdateStatus = "submitted"
	FormUpdateApproved  FormUpdateStatus = "approved"
	FormUpdateExpired   FormUpdateStatus = "expired"
)

// IsTerminal: a submitted update of a form that needs no counter-approval
// is terminal, but that is decided by the handler; here terminal means
// no further action is ever possible.
func (s FormUpdateStatus) IsTerminal() bool {
	return s == FormUpdateApproved || s == FormUpdateExpired
}

type SignerRole string

const (
	SignerEmployee SignerRole = "employee"
	SignerManager  SignerRole = "manager"
)

type ActorRole string

const (
	ActorEmployee ActorRole = "employee"
	ActorManager  ActorRole = "manager"
	ActorHR       ActorRole = "hr"
	ActorSystem   ActorRole = "system"
)

const SystemActor = "system"

type AuditAction string

const (
	AuditActionInitiated       AuditAction = "session_initiated"
	AuditActionStepCompleted   AuditAction = "step_completed"
	AuditActionPhaseChanged    AuditAction = "phase_changed"
	AuditActionManagerVerified AuditAction = "manager_verified"
	AuditActionApproved        AuditAction = "approved"
	AuditActionRejected        AuditAction = "rejected"
	AuditActionExpired         AuditAction = "expired"
	AuditActionDocumentBuilt   AuditAction = "document_generated"
	AuditActionIDDocScanned    AuditAction = "identity_document_scanned"
	AuditActionSignCaptured    AuditAction = "signature_captured"
	AuditActionUpdateIssued    AuditAction = "form_update_issued"
	AuditActionUpdateSaved     AuditAction = "form_update_saved"
	AuditActionUpdateApproved  AuditAction = "form_update_approved"
	AuditActionDeadlineMissed  AuditAction = "manager_deadline_missed"
)

type RuleSeverity string

const (
	SeverityBlocking RuleSeverity = "blocking"
	SeverityWarning  RuleSeverity = "warning"
)

type FieldSource string

const (
	SourceHuman   FieldSource = "human"
	SourceOCR     FieldSource = "ocr"
	SourceDefault FieldSource = "default"
)

type DocumentKind string

const (
	DocKindPassport      DocumentKind = "passport"
	DocKindDriverLicense DocumentKind = "driver_license"
	DocKindSocialCard    DocumentKind = "social_security_card"
)
