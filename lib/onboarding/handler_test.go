package onboarding

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	auditstore "onboarding-backend/lib/audit/store"
	docassembly "onboarding-backend/lib/doc-assembly"
	"onboarding-backend/lib/notification"
	onboardingstore "onboarding-backend/lib/onboarding/store"
	signaturestore "onboarding-backend/lib/signature/store"
	"onboarding-backend/models"
	onboardingapimodels "onboarding-backend/models/api/onboarding"
	dbmodels "onboarding-backend/models/db"
)

type stubSessionStore struct {
	sessions  map[string]*dbmodels.OnboardingSession
	nextID    int
	createErr error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]*dbmodels.OnboardingSession{}}
}

func (s *stubSessionStore) Create(rec dbmodels.OnboardingSession) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	rec.ID = fmt.Sprintf("session-%d", s.nextID)
	s.sessions[rec.ID] = &rec
	return rec.ID, nil
}

func (s *stubSessionStore) GetByID(id string) (*dbmodels.OnboardingSession, error) {
	rec, exist := s.sessions[id]
	if !exist {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (s *stubSessionStore) GetByIDForUpdate(id string) (*dbmodels.OnboardingSession, error) {
	return s.GetByID(id)
}

func (s *stubSessionStore) GetActiveByEmployee(employeeID string) (*dbmodels.OnboardingSession, error) {
	for _, rec := range s.sessions {
		if rec.EmployeeID == employeeID && !rec.Phase.IsTerminal() {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubSessionStore) Update(id string, updMap map[string]interface{}) error {
	rec, exist := s.sessions[id]
	if !exist {
		return fmt.Errorf("session record not found")
	}
	for field, value := range updMap {
		switch field {
		case "phase":
			rec.Phase = value.(models.OnboardingPhase)
		case "step_data":
			rec.StepData = value.(dbmodels.StepPayloads)
		case "step_hashes":
			rec.StepHashes = value.(dbmodels.StepHashes)
		case "completed_steps":
			rec.CompletedSteps = append(pq.StringArray{}, value.(pq.StringArray)...)
		case "ocr_data":
			rec.OCRData = value.(dbmodels.FormPayload)
		case "deadline_exceeded":
			rec.DeadlineExceeded = value.(bool)
		case "reject_reason":
			rec.RejectReason = value.(string)
		}
	}
	return nil
}

func (s *stubSessionStore) ListByPhase(phase models.OnboardingPhase) ([]dbmodels.OnboardingSession, error) {
	list := []dbmodels.OnboardingSession{}
	for _, rec := range s.sessions {
		if rec.Phase == phase {
			list = append(list, *rec)
		}
	}
	return list, nil
}

type stubAuditStore struct {
	entries []dbmodels.AuditEntry
}

func (s *stubAuditStore) Append(rec dbmodels.AuditEntry) error {
	rec.Seq = 0
	for _, e := range s.entries {
		if e.SessionID == rec.SessionID && e.Seq > rec.Seq {
			rec.Seq = e.Seq
		}
	}
	rec.Seq++
	s.entries = append(s.entries, rec)
	return nil
}

func (s *stubAuditStore) List(sessionID string) ([]dbmodels.AuditEntry, error) {
	list := []dbmodels.AuditEntry{}
	for _, e := range s.entries {
		if e.SessionID == sessionID {
			list = append(list, e)
		}
	}
	return list, nil
}

func (s *stubAuditStore) actions(sessionID string) []models.AuditAction {
	actions := []models.AuditAction{}
	for _, e := range s.entries {
		if e.SessionID == sessionID {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

type stubEmployeeStore struct {
	employees map[string]*dbmodels.Employee
}

func (s *stubEmployeeStore) GetByID(id string) (*dbmodels.Employee, error) {
	return s.employees[id], nil
}

type stubSignatureStore struct {
	signatures []dbmodels.DigitalSignature
}

func (s *stubSignatureStore) Create(rec dbmodels.DigitalSignature) (string, error) {
	rec.ID = fmt.Sprintf("sig-%d", len(s.signatures)+1)
	s.signatures = append(s.signatures, rec)
	return rec.ID, nil
}

func (s *stubSignatureStore) GetActive(sessionID string, formType models.FormType, role models.SignerRole) (*dbmodels.DigitalSignature, error) {
	for idx := len(s.signatures) - 1; idx >= 0; idx-- {
		sig := s.signatures[idx]
		if sig.SessionID == sessionID && sig.FormType == formType && sig.SignerRole == role && sig.IsActive() {
			return &sig, nil
		}
	}
	return nil, nil
}

func (s *stubSignatureStore) ListBySession(sessionID string) ([]dbmodels.DigitalSignature, error) {
	list := []dbmodels.DigitalSignature{}
	for _, sig := range s.signatures {
		if sig.SessionID == sessionID {
			list = append(list, sig)
		}
	}
	return list, nil
}

func (s *stubSignatureStore) MarkSuperseded(id, supersededByID string) error {
	for idx := range s.signatures {
		if s.signatures[idx].ID == id {
			s.signatures[idx].SupersededByID = &supersededByID
			return nil
		}
	}
	return fmt.Errorf("signature record not found")
}

type stubDocAssembly struct {
	assembled []docassembly.AssembleData
	failWith  error
}

func (s *stubDocAssembly) Assemble(_ context.Context, data docassembly.AssembleData) (*dbmodels.GeneratedDocument, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.assembled = append(s.assembled, data)
	return &dbmodels.GeneratedDocument{
		SessionID: data.SessionID,
		FormType:  data.FormType,
		Version:   len(s.assembled),
	}, nil
}

func (s *stubDocAssembly) GetLatest(context.Context, string, models.FormType) (*dbmodels.GeneratedDocument, []byte, error) {
	return nil, nil, nil
}

func (s *stubDocAssembly) ListBySession(string) ([]dbmodels.GeneratedDocument, error) {
	return nil, nil
}

type stubOCR struct {
	fields map[string]string
	err    error
}

func (s stubOCR) Extract(context.Context, []byte, models.DocumentKind) (map[string]string, error) {
	return s.fields, s.err
}

type stubFileStorage struct {
	uploads map[string][]byte
}

func (s *stubFileStorage) Upload(_ context.Context, key string, body []byte) error {
	s.uploads[key] = body
	return nil
}
func (s *stubFileStorage) GetFile(context.Context, string) ([]byte, error) {
	return nil, nil
}
func (s *stubFileStorage) EnsureBucket(context.Context) error { return nil }

type stubNotifier struct {
	recipients map[notification.EventType]string
}

func (s *stubNotifier) Notify(event notification.EventType, recipient, message string) {
	s.recipients[event] = recipient
}

type testEnv struct {
	handler  *impl
	sessions *stubSessionStore
	audit    *stubAuditStore
	signs    *stubSignatureStore
	docs     *stubDocAssembly
	files    *stubFileStorage
	notes    *stubNotifier
	now      time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sessions: newStubSessionStore(),
		audit:    &stubAuditStore{},
		signs:    &stubSignatureStore{},
		docs:     &stubDocAssembly{},
		files:    &stubFileStorage{uploads: map[string][]byte{}},
		notes:    &stubNotifier{recipients: map[notification.EventType]string{}},
		now:      time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC), // a Monday
	}
	managerID := "emp-manager"
	env.handler = &impl{
		employeeStore: &stubEmployeeStore{employees: map[string]*dbmodels.Employee{
			"emp-1":     {FirstName: "Jordan", LastName: "Reyes", Email: "jordan@example.com", ManagerID: &managerID},
			managerID:   {FirstName: "Casey", LastName: "Lin", Email: "casey@example.com"},
		}},
		docAssembly: env.docs,
		ocrProvider: stubOCR{fields: map[string]string{"first_name": "Jordan", "ssn": "123-45-6789"}},
		fileStorage: env.files,
		notifier:    env.notes,
		newStore: func(*gorm.DB) onboardingstore.Provider {
			return env.sessions
		},
		newAuditStore: func(*gorm.DB) auditstore.Provider {
			return env.audit
		},
		newSignStore: func(*gorm.DB) signaturestore.Provider {
			return env.signs
		},
		transaction: func(fn func(tx *gorm.DB) error) error {
			return fn(nil)
		},
		ttlDays:      7,
		deadlineDays: 3,
		hrMailbox:    "hr@example.com",
		now:          func() time.Time { return env.now },
	}
	return env
}

var (
	hrActor       = Actor{ID: "hr-1", Name: "Riley HR", Role: models.ActorHR}
	employeeActor = Actor{ID: "emp-1", Name: "Jordan Reyes", Role: models.ActorEmployee}
	managerActor  = Actor{ID: "emp-manager", Name: "Casey Lin", Role: models.ActorManager}
)

func initiate(t *testing.T, env *testEnv) string {
	t.Helper()
	id, err := env.handler.Initiate(hrActor, onboardingapimodels.InitiateData{
		EmployeeID: "emp-1",
		Position:   "Engineer",
		StartDate:  env.now,
	})
	require.Nil(t, err)
	return id
}

func stepPayload(step models.OnboardingStep) map[string]string {
	switch step {
	case models.StepPersonalInfo:
		return map[string]string{
			"first_name":    "Jordan",
			"last_name":     "Reyes",
			"date_of_birth": "1995-04-12",
			"ssn":           "123-45-6789",
			"address":       "12 Main St",
			"email":         "jordan@example.com",
			"phone":         "555-0100",
		}
	case models.StepW4:
		return map[string]string{
			"first_name":    "Jordan",
			"last_name":     "Reyes",
			"ssn":           "123-45-6789",
			"filing_status": "single",
		}
	case models.StepI9Section1:
		return map[string]string{
			"first_name":         "Jordan",
			"last_name":          "Reyes",
			"date_of_birth":      "1995-04-12",
			"citizenship_status": "citizen",
			"attestation_date":   "2026-02-02",
			"list_a_document":    "US Passport",
		}
	case models.StepPolicyAck:
		return map[string]string{
			"acknowledged": "true",
			"ack_date":     "2026-02-02",
		}
	}
	return map[string]string{}
}

func completeRequiredSteps(t *testing.T, env *testEnv, id string) {
	t.Helper()
	for _, step := range models.RequiredSteps {
		_, err := env.handler.CompleteStep(id, employeeActor, step, stepPayload(step))
		require.Nil(t, err)
	}
}

func managerPayload() map[string]string {
	return map[string]string{
		"document_title":    "US Passport",
		"document_number":   "900123456",
		"issuing_authority": "US Department of State",
		"verification_date": "2026-02-03",
		"manager_name":      "Casey Lin",
	}
}

func walkToHRReview(t *testing.T, env *testEnv, id string) {
	t.Helper()
	completeRequiredSteps(t, env, id)
	require.Nil(t, env.handler.TransitionToManagerReview(id, employeeActor))
	require.Nil(t, env.handler.CompleteManagerVerification(id, managerActor, managerPayload()))
	require.Nil(t, env.handler.OpenHRReview(id, hrActor))
}

func signAll(env *testEnv, id string) {
	for _, formType := range []models.FormType{
		models.FormTypeW4, models.FormTypeI9, models.FormTypePolicyAck,
	} {
		for _, role := range docassembly.RequiredSigners(formType) {
			_, _ = env.signs.Create(dbmodels.DigitalSignature{
				SessionID:  id,
				FormType:   formType,
				SignerRole: role,
				Image:      []byte{1},
				CapturedAt: env.now,
			})
		}
	}
}

func TestInitiate(t *testing.T) {
	t.Run(`creates an active session with deadlines`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		rec, err := env.sessions.GetByID(id)
		require.Nil(t, err)
		require.Equal(t, models.PhaseEmployeeInProgress, rec.Phase)
		require.Equal(t, env.now.Add(7*24*time.Hour), rec.ExpiresAt)
		// Monday start + 3 business days = Thursday
		require.Equal(t, env.now.AddDate(0, 0, 3), rec.ManagerDeadline)
		require.Equal(t, []models.AuditAction{models.AuditActionInitiated}, env.audit.actions(id))
	})

	t.Run(`second active session for the employee is rejected`, func(t *testing.T) {
		env := newTestEnv()
		initiate(t, env)
		_, err := env.handler.Initiate(hrActor, onboardingapimodels.InitiateData{
			EmployeeID: "emp-1",
			Position:   "Engineer",
			StartDate:  env.now,
		})
		require.ErrorIs(t, err, models.ErrDuplicateActiveSession)
	})

	t.Run(`racing initiate hits the unique index and maps to duplicate`, func(t *testing.T) {
		// two writers can pass the existence check concurrently; the
		// loser lands on the partial unique index instead
		env := newTestEnv()
		env.sessions.createErr = gorm.ErrDuplicatedKey
		_, err := env.handler.Initiate(hrActor, onboardingapimodels.InitiateData{
			EmployeeID: "emp-1",
			Position:   "Engineer",
			StartDate:  env.now,
		})
		require.ErrorIs(t, err, models.ErrDuplicateActiveSession)
	})

	t.Run(`expired prior session does not block`, func(t *testing.T) {
		env := newTestEnv()
		first := initiate(t, env)
		env.now = env.now.Add(8 * 24 * time.Hour)
		second, err := env.handler.Initiate(hrActor, onboardingapimodels.InitiateData{
			EmployeeID: "emp-1",
			Position:   "Engineer",
			StartDate:  env.now,
		})
		require.Nil(t, err)
		require.NotEqual(t, first, second)
		rec, _ := env.sessions.GetByID(first)
		require.Equal(t, models.PhaseExpired, rec.Phase)
	})
}

func TestCompleteStep(t *testing.T) {
	t.Run(`identical resubmission is a no-op with no audit entry`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		payload := stepPayload(models.StepW4)
		_, err := env.handler.CompleteStep(id, employeeActor, models.StepW4, payload)
		require.Nil(t, err)
		entriesAfterFirst := len(env.audit.actions(id))

		_, err = env.handler.CompleteStep(id, employeeActor, models.StepW4, payload)
		require.Nil(t, err)
		require.Equal(t, entriesAfterFirst, len(env.audit.actions(id)))

		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, 1, len(rec.CompletedSteps))
	})

	t.Run(`changed payload is re-validated and overwrites`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		payload := stepPayload(models.StepW4)
		_, err := env.handler.CompleteStep(id, employeeActor, models.StepW4, payload)
		require.Nil(t, err)

		payload["filing_status"] = "head_of_household"
		_, err = env.handler.CompleteStep(id, employeeActor, models.StepW4, payload)
		require.Nil(t, err)
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, "head_of_household", rec.StepData[string(models.StepW4)]["filing_status"])
		require.Equal(t, 1, len(rec.CompletedSteps))
	})

	t.Run(`blocking violation keeps the step incomplete`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		payload := stepPayload(models.StepW4)
		payload["ssn"] = "malformed"
		_, err := env.handler.CompleteStep(id, employeeActor, models.StepW4, payload)
		ruleErr, ok := models.AsComplianceError(err)
		require.True(t, ok)
		require.NotEmpty(t, ruleErr.Violations)
		rec, _ := env.sessions.GetByID(id)
		require.Empty(t, rec.CompletedSteps)
	})

	t.Run(`warnings are returned but do not block`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		payload := stepPayload(models.StepPersonalInfo)
		delete(payload, "phone")
		warnings, err := env.handler.CompleteStep(id, employeeActor, models.StepPersonalInfo, payload)
		require.Nil(t, err)
		require.NotEmpty(t, warnings)
		rec, _ := env.sessions.GetByID(id)
		require.True(t, rec.IsStepCompleted(models.StepPersonalInfo))
	})

	t.Run(`wrong phase is rejected`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		walkToHRReview(t, env, id)
		_, err := env.handler.CompleteStep(id, employeeActor, models.StepW4, stepPayload(models.StepW4))
		require.ErrorIs(t, err, models.ErrInvalidPhase)
	})

	t.Run(`expired session is rejected and flipped`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		env.now = env.now.Add(8 * 24 * time.Hour)
		_, err := env.handler.CompleteStep(id, employeeActor, models.StepW4, stepPayload(models.StepW4))
		require.ErrorIs(t, err, models.ErrInvalidPhase)
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseExpired, rec.Phase)
		actions := env.audit.actions(id)
		require.Equal(t, models.AuditActionExpired, actions[len(actions)-1])
	})
}

func TestTransitionToManagerReview(t *testing.T) {
	t.Run(`incomplete required steps block the handoff`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		_, err := env.handler.CompleteStep(id, employeeActor, models.StepW4, stepPayload(models.StepW4))
		require.Nil(t, err)
		err = env.handler.TransitionToManagerReview(id, employeeActor)
		require.ErrorIs(t, err, models.ErrIncompleteRequiredSteps)
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseEmployeeInProgress, rec.Phase)
	})

	t.Run(`complete steps move through employee_completed`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		completeRequiredSteps(t, env, id)
		require.Nil(t, env.handler.TransitionToManagerReview(id, employeeActor))
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseManagerReview, rec.Phase)
		// one audit entry per transition, none skipped
		actions := env.audit.actions(id)
		require.Equal(t, models.AuditActionPhaseChanged, actions[len(actions)-2])
		require.Equal(t, models.AuditActionPhaseChanged, actions[len(actions)-1])
	})

	t.Run(`optional steps are not required`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		completeRequiredSteps(t, env, id)
		rec, _ := env.sessions.GetByID(id)
		require.False(t, rec.IsStepCompleted(models.StepDirectDeposit))
		require.Nil(t, env.handler.TransitionToManagerReview(id, employeeActor))
	})
}

func TestCompleteManagerVerification(t *testing.T) {
	setup := func(t *testing.T) (*testEnv, string) {
		env := newTestEnv()
		id := initiate(t, env)
		completeRequiredSteps(t, env, id)
		require.Nil(t, env.handler.TransitionToManagerReview(id, employeeActor))
		return env, id
	}

	t.Run(`on-time verification advances the phase`, func(t *testing.T) {
		env, id := setup(t)
		require.Nil(t, env.handler.CompleteManagerVerification(id, managerActor, managerPayload()))
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseManagerCompleted, rec.Phase)
		require.False(t, rec.DeadlineExceeded)
	})

	t.Run(`invalid employer payload blocks`, func(t *testing.T) {
		env, id := setup(t)
		payload := managerPayload()
		delete(payload, "document_number")
		err := env.handler.CompleteManagerVerification(id, managerActor, payload)
		_, ok := models.AsComplianceError(err)
		require.True(t, ok)
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseManagerReview, rec.Phase)
	})

	t.Run(`late verification records the flag and proceeds when fail-open`, func(t *testing.T) {
		env, id := setup(t)
		env.now = env.now.AddDate(0, 0, 5)
		require.Nil(t, env.handler.CompleteManagerVerification(id, managerActor, managerPayload()))
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseManagerCompleted, rec.Phase)
		require.True(t, rec.DeadlineExceeded)
		require.Contains(t, env.audit.actions(id), models.AuditActionDeadlineMissed)
		require.Equal(t, "casey@example.com", env.notes.recipients[notification.EventManagerDeadlineHit])
	})

	t.Run(`late verification blocks when fail-closed`, func(t *testing.T) {
		env, id := setup(t)
		env.handler.failClosed = true
		env.now = env.now.AddDate(0, 0, 5)
		err := env.handler.CompleteManagerVerification(id, managerActor, managerPayload())
		require.ErrorIs(t, err, models.ErrDeadlineExceeded)
		rec, _ := env.sessions.GetByID(id)
		// the flag is still recorded, the verification is not
		require.True(t, rec.DeadlineExceeded)
		require.Equal(t, models.PhaseManagerReview, rec.Phase)
	})
}

func TestOpenHRReview(t *testing.T) {
	t.Run(`verified session moves to hr review and the mailbox is notified`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		completeRequiredSteps(t, env, id)
		require.Nil(t, env.handler.TransitionToManagerReview(id, employeeActor))
		require.Nil(t, env.handler.CompleteManagerVerification(id, managerActor, managerPayload()))
		require.Nil(t, env.handler.OpenHRReview(id, managerActor))
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseHRReview, rec.Phase)
		require.Equal(t, "hr@example.com", env.notes.recipients[notification.EventReadyForHR])
	})

	t.Run(`hr review cannot open before manager verification`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		err := env.handler.OpenHRReview(id, managerActor)
		require.ErrorIs(t, err, models.ErrInvalidPhase)
	})
}

func TestApprove(t *testing.T) {
	setup := func(t *testing.T) (*testEnv, string) {
		env := newTestEnv()
		id := initiate(t, env)
		walkToHRReview(t, env, id)
		return env, id
	}

	t.Run(`missing signature blocks with no state change`, func(t *testing.T) {
		env, id := setup(t)
		env.docs.failWith = models.ErrMissingSignature
		err := env.handler.Approve(context.Background(), id, hrActor)
		require.ErrorIs(t, err, models.ErrMissingSignature)
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseHRReview, rec.Phase)
	})

	t.Run(`signed session is approved with a document per form`, func(t *testing.T) {
		env, id := setup(t)
		signAll(env, id)
		require.Nil(t, env.handler.Approve(context.Background(), id, hrActor))
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseApproved, rec.Phase)
		// personal_info, w4, i9, policy_ack completed, four distinct forms
		require.Equal(t, 4, len(env.docs.assembled))
		require.Contains(t, env.audit.actions(id), models.AuditActionApproved)
	})

	t.Run(`manager verification fields land in the i9 payload`, func(t *testing.T) {
		env, id := setup(t)
		signAll(env, id)
		require.Nil(t, env.handler.Approve(context.Background(), id, hrActor))
		var i9Payload map[string]string
		for _, data := range env.docs.assembled {
			if data.FormType == models.FormTypeI9 {
				i9Payload = data.Payload
			}
		}
		require.Equal(t, "Casey Lin", i9Payload["manager_name"])
		require.Equal(t, "US Passport", i9Payload["list_a_document"])
	})

	t.Run(`approval from the wrong phase is rejected`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		err := env.handler.Approve(context.Background(), id, hrActor)
		require.ErrorIs(t, err, models.ErrInvalidPhase)
	})
}

func TestReject(t *testing.T) {
	t.Run(`rejection works from any active phase`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		require.Nil(t, env.handler.Reject(id, managerActor, "failed background check"))
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseRejected, rec.Phase)
		require.Equal(t, "failed background check", rec.RejectReason)
		require.Contains(t, env.audit.actions(id), models.AuditActionRejected)
	})

	t.Run(`terminal session cannot be rejected again`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		require.Nil(t, env.handler.Reject(id, managerActor, "first"))
		err := env.handler.Reject(id, managerActor, "second")
		require.ErrorIs(t, err, models.ErrInvalidPhase)
	})
}

func TestAttachIdentityDocument(t *testing.T) {
	t.Run(`extracted fields are stored and returned`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		fields, err := env.handler.AttachIdentityDocument(context.Background(), id, employeeActor, "passport", []byte("scan"))
		require.Nil(t, err)
		require.Equal(t, "Jordan", fields["first_name"])
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, "123-45-6789", rec.OCRData["ssn"])
		require.Contains(t, env.audit.actions(id), models.AuditActionIDDocScanned)
	})

	t.Run(`ocr outage surfaces as external service error`, func(t *testing.T) {
		env := newTestEnv()
		env.handler.ocrProvider = stubOCR{err: models.ErrExternalServiceUnavailable}
		id := initiate(t, env)
		_, err := env.handler.AttachIdentityDocument(context.Background(), id, employeeActor, "passport", []byte("scan"))
		require.ErrorIs(t, err, models.ErrExternalServiceUnavailable)
		require.NotContains(t, env.audit.actions(id), models.AuditActionIDDocScanned)
	})

	t.Run(`closed session leaves no scan in the blob store`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		require.Nil(t, env.handler.Reject(id, managerActor, "withdrawn"))
		_, err := env.handler.AttachIdentityDocument(context.Background(), id, employeeActor, "passport", []byte("scan"))
		require.ErrorIs(t, err, models.ErrInvalidPhase)
		require.Empty(t, env.files.uploads)
	})

	t.Run(`scan of an active session is uploaded`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		_, err := env.handler.AttachIdentityDocument(context.Background(), id, employeeActor, "passport", []byte("scan"))
		require.Nil(t, err)
		require.Equal(t, 1, len(env.files.uploads))
	})
}

func TestPendingLists(t *testing.T) {
	t.Run(`sessions show up in the right queue`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		completeRequiredSteps(t, env, id)
		require.Nil(t, env.handler.TransitionToManagerReview(id, employeeActor))

		managerQueue, err := env.handler.GetPendingManagerReviews()
		require.Nil(t, err)
		require.Equal(t, 1, len(managerQueue))
		require.Equal(t, id, managerQueue[0].ID)

		hrQueue, err := env.handler.GetPendingHRApprovals()
		require.Nil(t, err)
		require.Empty(t, hrQueue)
	})

	t.Run(`expired sessions drop out lazily`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		completeRequiredSteps(t, env, id)
		require.Nil(t, env.handler.TransitionToManagerReview(id, employeeActor))
		env.now = env.now.Add(8 * 24 * time.Hour)

		managerQueue, err := env.handler.GetPendingManagerReviews()
		require.Nil(t, err)
		require.Empty(t, managerQueue)
		rec, _ := env.sessions.GetByID(id)
		require.Equal(t, models.PhaseExpired, rec.Phase)
	})
}

func TestGetByID(t *testing.T) {
	t.Run(`unknown id`, func(t *testing.T) {
		env := newTestEnv()
		_, err := env.handler.GetByID("missing")
		require.ErrorIs(t, err, models.ErrSessionNotFound)
	})

	t.Run(`expired session reads as expired`, func(t *testing.T) {
		env := newTestEnv()
		id := initiate(t, env)
		env.now = env.now.Add(8 * 24 * time.Hour)
		view, err := env.handler.GetByID(id)
		require.Nil(t, err)
		require.Equal(t, models.PhaseExpired, view.Phase)
	})
}
