package onboarding

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"onboarding-backend/config"
	"onboarding-backend/db"
	auditstore "onboarding-backend/lib/audit/store"
	"onboarding-backend/lib/compliance"
	docassembly "onboarding-backend/lib/doc-assembly"
	employeestore "onboarding-backend/lib/employee/store"
	filestorage "onboarding-backend/lib/file-storage"
	"onboarding-backend/lib/notification"
	"onboarding-backend/lib/ocr"
	onboardingstore "onboarding-backend/lib/onboarding/store"
	signaturestore "onboarding-backend/lib/signature/store"
	"onboarding-backend/lib/utils/helpers"
	"onboarding-backend/models"
	onboardingapimodels "onboarding-backend/models/api/onboarding"
	dbmodels "onboarding-backend/models/db"
)

// the form the manager verification payload is validated against
const managerVerificationKey = "manager_verification"

type Actor struct {
	ID   string
	Name string
	Role models.ActorRole
}

type Provider interface {
	Initiate(actor Actor, data onboardingapimodels.InitiateData) (id string, err error)
	GetByID(id string) (onboardingapimodels.SessionView, error)
	CompleteStep(sessionID string, actor Actor, step models.OnboardingStep, payload map[string]string) (warnings []models.RuleViolation, err error)
	AttachIdentityDocument(ctx context.Context, sessionID string, actor Actor, kind models.DocumentKind, document []byte) (map[string]string, error)
	TransitionToManagerReview(sessionID string, actor Actor) error
	CompleteManagerVerification(sessionID string, actor Actor, payload map[string]string) error
	OpenHRReview(sessionID string, actor Actor) error
	Approve(ctx context.Context, sessionID string, actor Actor) error
	Reject(sessionID string, actor Actor, reason string) error
	GetPendingManagerReviews() ([]onboardingapimodels.SessionView, error)
	GetPendingHRApprovals() ([]onboardingapimodels.SessionView, error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		employeeStore: employeestore.NewInstance(db.DB),
		docAssembly:   docassembly.Instance,
		ocrProvider:   ocr.Instance,
		fileStorage:   filestorage.Instance,
		notifier:      notification.Instance,
		newStore:      onboardingstore.NewInstance,
		newAuditStore: auditstore.NewInstance,
		newSignStore:  signaturestore.NewInstance,
		transaction: func(fn func(tx *gorm.DB) error) error {
			return db.DB.Transaction(fn)
		},
		ttlDays:      config.Conf.Onboarding.SessionTTLDays,
		deadlineDays: config.Conf.Onboarding.ManagerDeadlineBusinessDays,
		failClosed:   *config.Conf.Onboarding.ManagerDeadlineFailClosed,
		hrMailbox:    config.Conf.Onboarding.HRMailbox,
		now:          time.Now,
	}
}

type impl struct {
	employeeStore employeestore.Provider
	docAssembly   docassembly.Provider
	ocrProvider   ocr.Provider
	fileStorage   filestorage.Provider
	notifier      notification.Provider

	// store factories take the transaction handle so the transition check
	// and the write stay atomic (teacher NewHandlerWithTx pattern)
	newStore      func(tx *gorm.DB) onboardingstore.Provider
	newAuditStore func(tx *gorm.DB) auditstore.Provider
	newSignStore  func(tx *gorm.DB) signaturestore.Provider
	transaction   func(fn func(tx *gorm.DB) error) error

	ttlDays      int
	deadlineDays int
	failClosed   bool
	hrMailbox    string
	now          func() time.Time
}

func (i *impl) Initiate(actor Actor, data onboardingapimodels.InitiateData) (id string, err error) {
	logger := log.WithField("employee_id", data.EmployeeID)
	employee, err := i.employeeStore.GetByID(data.EmployeeID)
	if err != nil {
		logger.WithError(err).Error("employee lookup failed")
		return "", err
	}
	if employee == nil {
		return "", errors.New("employee not found")
	}
	now := i.now()
	rec := dbmodels.OnboardingSession{
		EmployeeID:      data.EmployeeID,
		Phase:           models.PhaseEmployeeInProgress,
		Position:        data.Position,
		StartDate:       data.StartDate,
		CompletedSteps:  []string{},
		StepData:        dbmodels.StepPayloads{},
		StepHashes:      dbmodels.StepHashes{},
		OCRData:         dbmodels.FormPayload{},
		IssuedAt:        now,
		ExpiresAt:       now.Add(time.Duration(i.ttlDays) * 24 * time.Hour),
		ManagerDeadline: helpers.AddBusinessDays(data.StartDate, i.deadlineDays),
	}
	err = i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		existing, err := store.GetActiveByEmployee(data.EmployeeID)
		if err != nil {
			return err
		}
		if existing != nil && !existing.IsExpiredAt(now) {
			return models.ErrDuplicateActiveSession
		}
		if existing != nil {
			// lazy expiry of the stale session before replacing it
			if err = i.expire(store, i.newAuditStore(tx), existing); err != nil {
				return err
			}
		}
		id, err = store.Create(rec)
		if err != nil {
			// a racing Initiate for the same employee lands on the
			// partial unique index instead of the existence check
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrDuplicateActiveSession
			}
			return err
		}
		return i.newAuditStore(tx).Append(dbmodels.AuditEntry{
			SessionID: id,
			Actor:     actor.Name,
			ActorRole: actor.Role,
			Action:    models.AuditActionInitiated,
			After:     models.PhaseEmployeeInProgress,
			Changes: dbmodels.EntityChanges{
				Description: fmt.Sprintf("onboarding initiated for position %q", data.Position),
			},
		})
	})
	if err != nil {
		if !errors.Is(err, models.ErrDuplicateActiveSession) {
			logger.WithError(err).Error("onboarding initiation failed")
		}
		return "", err
	}
	logger.WithField("rec_id", id).Info("onboarding session created")
	i.notify(notification.EventSessionInitiated, employee.Email,
		fmt.Sprintf("Your onboarding for position %q has started. Forms are due by %s.",
			data.Position, rec.ExpiresAt.Format("2006-01-02")))
	return id, nil
}

func (i *impl) GetByID(id string) (view onboardingapimodels.SessionView, err error) {
	err = i.transaction(func(tx *gorm.DB) error {
		rec, err := i.getActual(tx, id)
		if err != nil {
			return err
		}
		view = onboardingapimodels.SessionConvert(*rec)
		return nil
	})
	return view, err
}

// CompleteStep is idempotent: the same (step, payload) pair is a no-op and
// appends no audit entry; a changed payload is re-validated and overwrites.
func (i *impl) CompleteStep(sessionID string, actor Actor, step models.OnboardingStep, payload map[string]string) (warnings []models.RuleViolation, err error) {
	logger := log.
		WithField("session_id", sessionID).
		WithField("step", step)
	if !step.IsKnown() {
		return nil, errors.Errorf("unknown step: %v", step)
	}
	err = i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		rec, err := i.getActualForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if rec.Phase != models.PhaseEmployeeInProgress {
			return models.ErrInvalidPhase
		}
		hash := helpers.PayloadHash(payload)
		if rec.IsStepCompleted(step) && rec.StepHashes[string(step)] == hash {
			// identical retry, nothing to do
			return nil
		}
		check := compliance.Validate(step.FormType(), payload)
		if err = check.AsError(); err != nil {
			return err
		}
		warnings = check.Warnings

		stepData := rec.StepData
		if stepData == nil {
			stepData = dbmodels.StepPayloads{}
		}
		stepData[string(step)] = payload
		stepHashes := rec.StepHashes
		if stepHashes == nil {
			stepHashes = dbmodels.StepHashes{}
		}
		stepHashes[string(step)] = hash
		completed := rec.CompletedSteps
		if !rec.IsStepCompleted(step) {
			completed = append(completed, string(step))
		}
		updMap := map[string]interface{}{
			"step_data":       stepData,
			"step_hashes":     stepHashes,
			"completed_steps": completed,
		}
		if err = store.Update(sessionID, updMap); err != nil {
			return err
		}
		return i.newAuditStore(tx).Append(dbmodels.AuditEntry{
			SessionID: sessionID,
			Actor:     actor.Name,
			ActorRole: actor.Role,
			Action:    models.AuditActionStepCompleted,
			Before:    rec.Phase,
			After:     rec.Phase,
			Changes: dbmodels.EntityChanges{
				Description: fmt.Sprintf("step %s completed", step),
				Data: []dbmodels.FieldChanges{
					{Field: "completed_steps", OldValue: rec.CompletedSteps, NewValue: completed},
				},
			},
		})
	})
	if err != nil {
		if _, isRule := models.AsComplianceError(err); !isRule && !errors.Is(err, models.ErrInvalidPhase) {
			logger.WithError(err).Error("step completion failed")
		}
		return nil, err
	}
	logger.Info("step saved")
	return warnings, nil
}

// AttachIdentityDocument runs an uploaded scan through the OCR adapter and
// keeps the extracted fields on the session. They only ever auto-populate
// fields no human has entered; assembly enforces that precedence.
func (i *impl) AttachIdentityDocument(ctx context.Context, sessionID string, actor Actor, kind models.DocumentKind, document []byte) (map[string]string, error) {
	logger := log.
		WithField("session_id", sessionID).
		WithField("document_kind", kind)
	// check the session before touching OCR or the blob store so a closed
	// or expired session leaves no orphaned scan behind
	current, err := i.loadForRead(sessionID)
	if err != nil {
		return nil, err
	}
	if current.Phase != models.PhaseEmployeeInProgress {
		return nil, models.ErrInvalidPhase
	}
	fields, err := i.ocrProvider.Extract(ctx, document, kind)
	if err != nil {
		return nil, err
	}
	scanKey := fmt.Sprintf("sessions/%s/scans/%s", sessionID, kind)
	if err = i.fileStorage.Upload(ctx, scanKey, document); err != nil {
		return nil, err
	}
	err = i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		rec, err := i.getActualForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if rec.Phase != models.PhaseEmployeeInProgress {
			return models.ErrInvalidPhase
		}
		ocrData := rec.OCRData
		if ocrData == nil {
			ocrData = dbmodels.FormPayload{}
		}
		for field, value := range fields {
			ocrData[field] = value
		}
		if err = store.Update(sessionID, map[string]interface{}{"ocr_data": ocrData}); err != nil {
			return err
		}
		return i.newAuditStore(tx).Append(dbmodels.AuditEntry{
			SessionID: sessionID,
			Actor:     actor.Name,
			ActorRole: actor.Role,
			Action:    models.AuditActionIDDocScanned,
			Before:    rec.Phase,
			After:     rec.Phase,
			Changes: dbmodels.EntityChanges{
				Description: fmt.Sprintf("identity document %s scanned, %d fields extracted", kind, len(fields)),
			},
		})
	})
	if err != nil {
		logger.WithError(err).Error("identity document attach failed")
		return nil, err
	}
	logger.WithField("fields", len(fields)).Info("identity document processed")
	return fields, nil
}

// TransitionToManagerReview hands the session over to the manager. It is
// gated on the fixed required-step set; an employee_in_progress session
// with all required steps complete passes through employee_completed.
func (i *impl) TransitionToManagerReview(sessionID string, actor Actor) error {
	logger := log.WithField("session_id", sessionID)
	var managerEmail string
	err := i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		auditStore := i.newAuditStore(tx)
		rec, err := i.getActualForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if rec.Phase != models.PhaseEmployeeInProgress && rec.Phase != models.PhaseEmployeeCompleted {
			return models.ErrInvalidPhase
		}
		if len(rec.MissingRequiredSteps()) > 0 {
			return models.ErrIncompleteRequiredSteps
		}
		if rec.Phase == models.PhaseEmployeeInProgress {
			if err = i.changePhase(store, auditStore, rec, models.PhaseEmployeeCompleted, actor, "all required steps complete"); err != nil {
				return err
			}
			rec.Phase = models.PhaseEmployeeCompleted
		}
		if err = i.changePhase(store, auditStore, rec, models.PhaseManagerReview, actor, "manager review started"); err != nil {
			return err
		}
		managerEmail = i.managerEmail(rec.EmployeeID)
		return nil
	})
	if err != nil {
		if !errors.Is(err, models.ErrIncompleteRequiredSteps) && !errors.Is(err, models.ErrInvalidPhase) {
			logger.WithError(err).Error("manager review transition failed")
		}
		return err
	}
	logger.Info("session moved to manager review")
	i.notify(notification.EventReadyForManager, managerEmail,
		"An onboarding packet is waiting for your verification.")
	return nil
}

// CompleteManagerVerification validates the employer-side payload. A late
// verification is always recorded as DeadlineExceeded; whether it also
// blocks is the fail-closed policy flag.
func (i *impl) CompleteManagerVerification(sessionID string, actor Actor, payload map[string]string) error {
	logger := log.WithField("session_id", sessionID)
	blocked := false
	lateRecorded := false
	var employeeID string
	err := i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		auditStore := i.newAuditStore(tx)
		rec, err := i.getActualForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if rec.Phase != models.PhaseManagerReview {
			return models.ErrInvalidPhase
		}
		employeeID = rec.EmployeeID
		check := compliance.ValidateEmployer(models.FormTypeI9, payload)
		if err = check.AsError(); err != nil {
			return err
		}
		late := i.now().After(rec.ManagerDeadline)
		if late && !rec.DeadlineExceeded {
			lateRecorded = true
			if err = store.Update(sessionID, map[string]interface{}{"deadline_exceeded": true}); err != nil {
				return err
			}
			err = auditStore.Append(dbmodels.AuditEntry{
				SessionID: sessionID,
				Actor:     actor.Name,
				ActorRole: actor.Role,
				Action:    models.AuditActionDeadlineMissed,
				Before:    rec.Phase,
				After:     rec.Phase,
				Changes: dbmodels.EntityChanges{
					Description: fmt.Sprintf("manager verification after deadline %s", rec.ManagerDeadline.Format("2006-01-02")),
				},
			})
			if err != nil {
				return err
			}
		}
		if late && i.failClosed {
			// commit the compliance flag, abort the verification
			blocked = true
			return nil
		}
		stepData := rec.StepData
		if stepData == nil {
			stepData = dbmodels.StepPayloads{}
		}
		stepData[managerVerificationKey] = payload
		if err = store.Update(sessionID, map[string]interface{}{"step_data": stepData}); err != nil {
			return err
		}
		err = auditStore.Append(dbmodels.AuditEntry{
			SessionID: sessionID,
			Actor:     actor.Name,
			ActorRole: actor.Role,
			Action:    models.AuditActionManagerVerified,
			Before:    rec.Phase,
			After:     rec.Phase,
			Changes:   dbmodels.EntityChanges{Description: "employer verification recorded"},
		})
		if err != nil {
			return err
		}
		return i.changePhase(store, auditStore, rec, models.PhaseManagerCompleted, actor, "employer verification complete")
	})
	if err != nil {
		if _, isRule := models.AsComplianceError(err); !isRule && !errors.Is(err, models.ErrInvalidPhase) {
			logger.WithError(err).Error("manager verification failed")
		}
		return err
	}
	if lateRecorded {
		i.notify(notification.EventManagerDeadlineHit, i.managerEmail(employeeID),
			"An onboarding verification was submitted after its deadline; compliance has been notified.")
	}
	if blocked {
		logger.Warn("manager verification blocked by deadline policy")
		return models.ErrDeadlineExceeded
	}
	logger.Info("manager verification complete")
	return nil
}

func (i *impl) OpenHRReview(sessionID string, actor Actor) error {
	logger := log.WithField("session_id", sessionID)
	err := i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		rec, err := i.getActualForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if rec.Phase != models.PhaseManagerCompleted {
			return models.ErrInvalidPhase
		}
		return i.changePhase(store, i.newAuditStore(tx), rec, models.PhaseHRReview, actor, "HR review opened")
	})
	if err != nil {
		if !errors.Is(err, models.ErrInvalidPhase) {
			logger.WithError(err).Error("HR review transition failed")
		}
		return err
	}
	logger.Info("session moved to HR review")
	i.notify(notification.EventReadyForHR, i.hrMailbox,
		"An onboarding packet is verified and waiting for HR approval.")
	return nil
}

// Approve assembles the final signed packet and closes the workflow.
// Assembly happens before the terminal transition: a missing signature or
// an unavailable document store stops the approval with no state change.
func (i *impl) Approve(ctx context.Context, sessionID string, actor Actor) error {
	logger := log.WithField("session_id", sessionID)
	rec, err := i.loadForRead(sessionID)
	if err != nil {
		return err
	}
	if rec.Phase != models.PhaseHRReview {
		return models.ErrInvalidPhase
	}
	signatures, err := i.newSignStore(db.DB).ListBySession(sessionID)
	if err != nil {
		return err
	}
	generated := []string{}
	for _, formType := range completedFormTypes(*rec) {
		doc, err := i.docAssembly.Assemble(ctx, docassembly.AssembleData{
			SessionID:  sessionID,
			FormType:   formType,
			Payload:    mergedStepPayload(*rec, formType),
			OCRFields:  rec.OCRData,
			Signatures: signatures,
		})
		if err != nil {
			logger.
				WithField("form_type", formType).
				WithError(err).
				Warn("final packet assembly failed")
			return err
		}
		generated = append(generated, fmt.Sprintf("%s v%d", doc.FormType, doc.Version))
	}
	var employeeEmail string
	err = i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		auditStore := i.newAuditStore(tx)
		rec, err := i.getActualForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if rec.Phase != models.PhaseHRReview {
			return models.ErrInvalidPhase
		}
		err = auditStore.Append(dbmodels.AuditEntry{
			SessionID: sessionID,
			Actor:     actor.Name,
			ActorRole: actor.Role,
			Action:    models.AuditActionDocumentBuilt,
			Before:    rec.Phase,
			After:     rec.Phase,
			Changes: dbmodels.EntityChanges{
				Description: fmt.Sprintf("final packet generated: %v", generated),
			},
		})
		if err != nil {
			return err
		}
		return i.changePhase(store, auditStore, rec, models.PhaseApproved, actor, "HR approval")
	})
	if err != nil {
		return err
	}
	if employee, lookupErr := i.employeeStore.GetByID(rec.EmployeeID); lookupErr == nil && employee != nil {
		employeeEmail = employee.Email
	}
	logger.Info("onboarding approved")
	i.notify(notification.EventSessionApproved, employeeEmail, "Your onboarding has been approved. Welcome aboard!")
	return nil
}

// Reject is the terminal sink reachable from any non-terminal phase and
// doubles as the cooperative cancellation point for the workflow.
func (i *impl) Reject(sessionID string, actor Actor, reason string) error {
	logger := log.WithField("session_id", sessionID)
	var employeeID string
	err := i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		rec, err := i.getActualForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if rec.Phase.IsTerminal() {
			return models.ErrInvalidPhase
		}
		employeeID = rec.EmployeeID
		if err = store.Update(sessionID, map[string]interface{}{"reject_reason": reason}); err != nil {
			return err
		}
		return i.changePhase(store, i.newAuditStore(tx), rec, models.PhaseRejected, actor, reason)
	})
	if err != nil {
		if !errors.Is(err, models.ErrInvalidPhase) {
			logger.WithError(err).Error("rejection failed")
		}
		return err
	}
	logger.Info("onboarding rejected")
	if employee, lookupErr := i.employeeStore.GetByID(employeeID); lookupErr == nil && employee != nil {
		i.notify(notification.EventSessionRejected, employee.Email,
			fmt.Sprintf("Your onboarding was rejected: %s", reason))
	}
	return nil
}

func (i *impl) GetPendingManagerReviews() ([]onboardingapimodels.SessionView, error) {
	return i.listPending(models.PhaseEmployeeCompleted, models.PhaseManagerReview)
}

func (i *impl) GetPendingHRApprovals() ([]onboardingapimodels.SessionView, error) {
	return i.listPending(models.PhaseManagerCompleted, models.PhaseHRReview)
}

func (i *impl) listPending(phases ...models.OnboardingPhase) ([]onboardingapimodels.SessionView, error) {
	result := []onboardingapimodels.SessionView{}
	now := i.now()
	for _, phase := range phases {
		list, err := i.newStore(db.DB).ListByPhase(phase)
		if err != nil {
			log.WithField("phase", phase).WithError(err).Error("pending list read failed")
			return nil, err
		}
		for _, rec := range list {
			if rec.IsExpiredAt(now) {
				// lazily expire instead of surfacing a dead session
				expireErr := i.transaction(func(tx *gorm.DB) error {
					locked, err := i.newStore(tx).GetByIDForUpdate(rec.ID)
					if err != nil || locked == nil {
						return err
					}
					if !locked.IsExpiredAt(now) {
						return nil
					}
					return i.expire(i.newStore(tx), i.newAuditStore(tx), locked)
				})
				if expireErr != nil {
					return nil, expireErr
				}
				continue
			}
			result = append(result, onboardingapimodels.SessionConvert(rec))
		}
	}
	return result, nil
}

// getActualForUpdate loads the session with a row lock and applies lazy
// expiry before the caller's phase check.
func (i *impl) getActualForUpdate(tx *gorm.DB, sessionID string) (*dbmodels.OnboardingSession, error) {
	store := i.newStore(tx)
	rec, err := store.GetByIDForUpdate(sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, models.ErrSessionNotFound
	}
	if rec.IsExpiredAt(i.now()) {
		if err = i.expire(store, i.newAuditStore(tx), rec); err != nil {
			return nil, err
		}
		rec.Phase = models.PhaseExpired
	}
	return rec, nil
}

func (i *impl) getActual(tx *gorm.DB, sessionID string) (*dbmodels.OnboardingSession, error) {
	store := i.newStore(tx)
	rec, err := store.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, models.ErrSessionNotFound
	}
	if rec.IsExpiredAt(i.now()) {
		if err = i.expire(store, i.newAuditStore(tx), rec); err != nil {
			return nil, err
		}
		rec.Phase = models.PhaseExpired
	}
	return rec, nil
}

func (i *impl) loadForRead(sessionID string) (*dbmodels.OnboardingSession, error) {
	var rec *dbmodels.OnboardingSession
	err := i.transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = i.getActual(tx, sessionID)
		return err
	})
	return rec, err
}

func (i *impl) expire(store onboardingstore.Provider, auditStore auditstore.Provider, rec *dbmodels.OnboardingSession) error {
	err := store.Update(rec.ID, map[string]interface{}{"phase": models.PhaseExpired})
	if err != nil {
		return err
	}
	return auditStore.Append(dbmodels.AuditEntry{
		SessionID: rec.ID,
		Actor:     models.SystemActor,
		ActorRole: models.ActorSystem,
		Action:    models.AuditActionExpired,
		Before:    rec.Phase,
		After:     models.PhaseExpired,
		Changes: dbmodels.EntityChanges{
			Description: fmt.Sprintf("capability window closed at %s", rec.ExpiresAt.Format(time.RFC3339)),
		},
	})
}

// changePhase is the single mutation point for the phase column: it
// re-checks the transition map and appends exactly one audit entry.
func (i *impl) changePhase(store onboardingstore.Provider, auditStore auditstore.Provider, rec *dbmodels.OnboardingSession, next models.OnboardingPhase, actor Actor, description string) error {
	if !rec.Phase.IsAllowChange(next) {
		return models.ErrInvalidPhase
	}
	err := store.Update(rec.ID, map[string]interface{}{"phase": next})
	if err != nil {
		return err
	}
	action := models.AuditActionPhaseChanged
	switch next {
	case models.PhaseApproved:
		action = models.AuditActionApproved
	case models.PhaseRejected:
		action = models.AuditActionRejected
	}
	return auditStore.Append(dbmodels.AuditEntry{
		SessionID: rec.ID,
		Actor:     actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Before:    rec.Phase,
		After:     next,
		Changes:   dbmodels.EntityChanges{Description: description},
	})
}

func (i *impl) managerEmail(employeeID string) string {
	employee, err := i.employeeStore.GetByID(employeeID)
	if err != nil || employee == nil || employee.ManagerID == nil {
		return ""
	}
	manager, err := i.employeeStore.GetByID(*employee.ManagerID)
	if err != nil || manager == nil {
		return ""
	}
	return manager.Email
}

func (i *impl) notify(event notification.EventType, recipient, message string) {
	if i.notifier == nil || recipient == "" {
		return
	}
	i.notifier.Notify(event, recipient, message)
}

// completedFormTypes lists the distinct document forms covered by the
// session's completed steps, in a fixed order.
func completedFormTypes(rec dbmodels.OnboardingSession) []models.FormType {
	seen := map[models.FormType]bool{}
	result := []models.FormType{}
	for _, raw := range rec.CompletedSteps {
		formType := models.OnboardingStep(raw).FormType()
		if seen[formType] {
			continue
		}
		seen[formType] = true
		result = append(result, formType)
	}
	return result
}

// mergedStepPayload collects every completed step's fields that belong to
// the given form, plus the employer verification when assembling the I-9.
func mergedStepPayload(rec dbmodels.OnboardingSession, formType models.FormType) map[string]string {
	payload := map[string]string{}
	for _, raw := range rec.CompletedSteps {
		step := models.OnboardingStep(raw)
		if step.FormType() != formType {
			continue
		}
		for field, value := range rec.StepData[raw] {
			payload[field] = value
		}
	}
	if formType == models.FormTypeI9 {
		for field, value := range rec.StepData[managerVerificationKey] {
			payload[field] = value
		}
	}
	return payload
}
