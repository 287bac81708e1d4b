package formupdate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	auditstore "onboarding-backend/lib/audit/store"
	docassembly "onboarding-backend/lib/doc-assembly"
	formupdatestore "onboarding-backend/lib/form-update/store"
	signaturestore "onboarding-backend/lib/signature/store"
	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type stubUpdateStore struct {
	records   map[string]*dbmodels.FormUpdateSession
	nextID    int
	createErr error
}

func newStubUpdateStore() *stubUpdateStore {
	return &stubUpdateStore{records: map[string]*dbmodels.FormUpdateSession{}}
}

func (s *stubUpdateStore) Create(rec dbmodels.FormUpdateSession) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	rec.ID = fmt.Sprintf("upd-%d", s.nextID)
	s.records[rec.ID] = &rec
	return rec.ID, nil
}

func (s *stubUpdateStore) GetByID(id string) (*dbmodels.FormUpdateSession, error) {
	rec, exist := s.records[id]
	if !exist {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (s *stubUpdateStore) GetByToken(token string) (*dbmodels.FormUpdateSession, error) {
	for _, rec := range s.records {
		if rec.Token == token {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubUpdateStore) ListByEmployeeAndForm(employeeID string, formType models.FormType) ([]dbmodels.FormUpdateSession, error) {
	list := []dbmodels.FormUpdateSession{}
	for _, rec := range s.records {
		if rec.EmployeeID == employeeID && rec.FormType == formType {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s *stubUpdateStore) Update(id string, updMap map[string]interface{}) error {
	rec, exist := s.records[id]
	if !exist {
		return fmt.Errorf("form update record not found")
	}
	for field, value := range updMap {
		switch field {
		case "status":
			rec.Status = value.(models.FormUpdateStatus)
		case "submitted_at":
			rec.SubmittedAt = value.(*time.Time)
		case "approved_at":
			rec.ApprovedAt = value.(*time.Time)
		case "approved_by":
			rec.ApprovedBy = value.(string)
		case "payload":
			rec.Payload = toFormPayload(value)
		}
	}
	return nil
}

func toFormPayload(value interface{}) dbmodels.FormPayload {
	switch typed := value.(type) {
	case dbmodels.FormPayload:
		return typed
	case map[string]string:
		return dbmodels.FormPayload(typed)
	}
	return nil
}

type stubAuditStore struct {
	entries []dbmodels.AuditEntry
}

func (s *stubAuditStore) Append(rec dbmodels.AuditEntry) error {
	rec.Seq = int64(len(s.entries) + 1)
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

type stubEmployeeStore struct{}

func (stubEmployeeStore) GetByID(id string) (*dbmodels.Employee, error) {
	if id != "emp-1" {
		return nil, nil
	}
	return &dbmodels.Employee{FirstName: "Jordan", LastName: "Reyes", Email: "jordan@example.com"}, nil
}

type stubDocAssembly struct {
	assembled []docassembly.AssembleData
}

func (s *stubDocAssembly) Assemble(_ context.Context, data docassembly.AssembleData) (*dbmodels.GeneratedDocument, error) {
	s.assembled = append(s.assembled, data)
	return &dbmodels.GeneratedDocument{SessionID: data.SessionID, FormType: data.FormType, Version: len(s.assembled)}, nil
}

func (s *stubDocAssembly) GetLatest(context.Context, string, models.FormType) (*dbmodels.GeneratedDocument, []byte, error) {
	return nil, nil, nil
}

func (s *stubDocAssembly) ListBySession(string) ([]dbmodels.GeneratedDocument, error) {
	return nil, nil
}

type testEnv struct {
	handler *impl
	updates *stubUpdateStore
	audit   *stubAuditStore
	signs   *stubSignatureStore
	docs    *stubDocAssembly
	now     time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		updates: newStubUpdateStore(),
		audit:   &stubAuditStore{},
		signs:   &stubSignatureStore{},
		docs:    &stubDocAssembly{},
		now:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	env.handler = &impl{
		employeeStore: stubEmployeeStore{},
		docAssembly:   env.docs,
		newStore: func(*gorm.DB) formupdatestore.Provider {
			return env.updates
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
		defaultTTLHours: 24,
		linkDomain:      "http://localhost:8000",
		now:             func() time.Time { return env.now },
	}
	return env
}

var hrActor = Actor{ID: "hr-1", Name: "Riley HR", Role: models.ActorHR}

func issueLink(t *testing.T, env *testEnv, formType models.FormType) string {
	t.Helper()
	view, err := env.handler.GenerateUpdateLink(hrActor, "emp-1", formType, 0)
	require.Nil(t, err)
	rec, err := env.updates.GetByID(view.ID)
	require.Nil(t, err)
	return rec.Token
}

func w4Payload() map[string]string {
	return map[string]string{
		"first_name":    "Jordan",
		"last_name":     "Reyes",
		"ssn":           "123-45-6789",
		"filing_status": "married_filing_jointly",
	}
}

func saveData(payload map[string]string) SaveData {
	return SaveData{
		Payload:         payload,
		SignatureImage:  []byte{1, 2, 3},
		AttestationText: "I declare the above to be true and correct.",
		OriginIP:        "203.0.113.7",
	}
}

func TestGenerateUpdateLink(t *testing.T) {
	t.Run(`token is unguessable and scoped`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypeW4)
		require.GreaterOrEqual(t, len(token), 43) // 32 random bytes, base64url
		rec, _ := env.updates.GetByToken(token)
		require.Equal(t, models.FormTypeW4, rec.FormType)
		require.Equal(t, models.FormUpdatePending, rec.Status)
		require.Equal(t, env.now.Add(24*time.Hour), rec.ExpiresAt)
	})

	t.Run(`two links never share a token`, func(t *testing.T) {
		env := newTestEnv()
		first := issueLink(t, env, models.FormTypeW4)
		second := issueLink(t, env, models.FormTypeDirectDeposit)
		require.NotEqual(t, first, second)
	})

	t.Run(`active update for the same form blocks a new link`, func(t *testing.T) {
		env := newTestEnv()
		issueLink(t, env, models.FormTypeW4)
		_, err := env.handler.GenerateUpdateLink(hrActor, "emp-1", models.FormTypeW4, 0)
		require.ErrorIs(t, err, models.ErrConflictingActiveUpdate)
	})

	t.Run(`racing issue hits the unique index and maps to conflict`, func(t *testing.T) {
		// two writers can pass the existence check concurrently; the
		// loser lands on the partial unique index instead
		env := newTestEnv()
		env.updates.createErr = gorm.ErrDuplicatedKey
		_, err := env.handler.GenerateUpdateLink(hrActor, "emp-1", models.FormTypeW4, 0)
		require.ErrorIs(t, err, models.ErrConflictingActiveUpdate)
	})

	t.Run(`different form is not a conflict`, func(t *testing.T) {
		env := newTestEnv()
		issueLink(t, env, models.FormTypeW4)
		_, err := env.handler.GenerateUpdateLink(hrActor, "emp-1", models.FormTypeDirectDeposit, 0)
		require.Nil(t, err)
	})

	t.Run(`expired prior link is lazily closed and reissued`, func(t *testing.T) {
		env := newTestEnv()
		first := issueLink(t, env, models.FormTypeW4)
		env.now = env.now.Add(25 * time.Hour)
		second := issueLink(t, env, models.FormTypeW4)
		require.NotEqual(t, first, second)
		rec, _ := env.updates.GetByToken(first)
		require.Equal(t, models.FormUpdateExpired, rec.Status)
	})
}

func TestValidateUpdateToken(t *testing.T) {
	t.Run(`unknown token`, func(t *testing.T) {
		env := newTestEnv()
		_, err := env.handler.ValidateUpdateToken("no-such-token")
		require.ErrorIs(t, err, models.ErrTokenNotFound)
	})

	t.Run(`valid token resolves`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypeW4)
		view, err := env.handler.ValidateUpdateToken(token)
		require.Nil(t, err)
		require.Equal(t, models.FormTypeW4, view.FormType)
		require.True(t, view.RequiresApproval)
	})

	t.Run(`expired token flips the record`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypeW4)
		env.now = env.now.Add(25 * time.Hour)
		_, err := env.handler.ValidateUpdateToken(token)
		require.ErrorIs(t, err, models.ErrTokenExpired)
		rec, _ := env.updates.GetByToken(token)
		require.Equal(t, models.FormUpdateExpired, rec.Status)
	})
}

func TestSaveFormUpdate(t *testing.T) {
	t.Run(`compliance failure blocks the save`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypeW4)
		payload := w4Payload()
		payload["filing_status"] = "widowed"
		_, err := env.handler.SaveFormUpdate(context.Background(), token, saveData(payload))
		_, ok := models.AsComplianceError(err)
		require.True(t, ok)
		rec, _ := env.updates.GetByToken(token)
		require.Equal(t, models.FormUpdatePending, rec.Status)
	})

	t.Run(`wage-affecting form waits for counter-approval`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypeW4)
		view, err := env.handler.SaveFormUpdate(context.Background(), token, saveData(w4Payload()))
		require.Nil(t, err)
		require.Equal(t, models.FormUpdateSubmitted, view.Status)
		// no document until HR approves
		require.Empty(t, env.docs.assembled)
		require.Equal(t, 1, len(env.signs.signatures))
	})

	t.Run(`acknowledgment form is effective immediately`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypePolicyAck)
		payload := map[string]string{
			"acknowledged": "true",
			"ack_date":     "2026-03-02",
		}
		view, err := env.handler.SaveFormUpdate(context.Background(), token, saveData(payload))
		require.Nil(t, err)
		require.Equal(t, models.FormUpdateSubmitted, view.Status)
		require.Equal(t, 1, len(env.docs.assembled))
		require.Equal(t, models.FormTypePolicyAck, env.docs.assembled[0].FormType)
	})

	t.Run(`consumed token cannot be replayed`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypePolicyAck)
		payload := map[string]string{
			"acknowledged": "true",
			"ack_date":     "2026-03-02",
		}
		_, err := env.handler.SaveFormUpdate(context.Background(), token, saveData(payload))
		require.Nil(t, err)
		_, err = env.handler.SaveFormUpdate(context.Background(), token, saveData(payload))
		require.ErrorIs(t, err, models.ErrTokenExpired)
	})
}

func TestApproveFormUpdate(t *testing.T) {
	t.Run(`approval assembles the updated document`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypeW4)
		view, err := env.handler.SaveFormUpdate(context.Background(), token, saveData(w4Payload()))
		require.Nil(t, err)

		approved, err := env.handler.ApproveFormUpdate(context.Background(), view.ID, hrActor)
		require.Nil(t, err)
		require.Equal(t, models.FormUpdateApproved, approved.Status)
		require.Equal(t, 1, len(env.docs.assembled))
		require.Equal(t, "married_filing_jointly", env.docs.assembled[0].Payload["filing_status"])
		// the fresh signature travels with the rebuilt document
		require.Equal(t, 1, len(env.docs.assembled[0].Signatures))
	})

	t.Run(`pending update cannot be approved`, func(t *testing.T) {
		env := newTestEnv()
		token := issueLink(t, env, models.FormTypeW4)
		rec, _ := env.updates.GetByToken(token)
		_, err := env.handler.ApproveFormUpdate(context.Background(), rec.ID, hrActor)
		require.NotNil(t, err)
	})
}
