package formupdate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
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
	formupdatestore "onboarding-backend/lib/form-update/store"
	"onboarding-backend/lib/notification"
	signaturestore "onboarding-backend/lib/signature/store"
	"onboarding-backend/lib/utils/helpers"
	"onboarding-backend/models"
	onboardingapimodels "onboarding-backend/models/api/onboarding"
	dbmodels "onboarding-backend/models/db"
)

type Actor struct {
	ID   string
	Name string
	Role models.ActorRole
}

type SaveData struct {
	Payload         map[string]string
	SignatureImage  []byte
	AttestationText string
	OriginIP        string
}

type Provider interface {
	// GenerateUpdateLink mints a single-form capability token and mails
	// the update link to the employee
	GenerateUpdateLink(actor Actor, employeeID string, formType models.FormType, ttlHours int) (onboardingapimodels.FormUpdateView, error)
	ValidateUpdateToken(token string) (onboardingapimodels.FormUpdateView, error)
	SaveFormUpdate(ctx context.Context, token string, data SaveData) (onboardingapimodels.FormUpdateView, error)
	ApproveFormUpdate(ctx context.Context, id string, actor Actor) (onboardingapimodels.FormUpdateView, error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		employeeStore: employeestore.NewInstance(db.DB),
		docAssembly:   docassembly.Instance,
		notifier:      notification.Instance,
		newStore:      formupdatestore.NewInstance,
		newAuditStore: auditstore.NewInstance,
		newSignStore:  signaturestore.NewInstance,
		transaction: func(fn func(tx *gorm.DB) error) error {
			return db.DB.Transaction(fn)
		},
		defaultTTLHours: config.Conf.Onboarding.FormUpdateTTLHours,
		linkDomain:      config.Conf.Smtp.DomainForFormLink,
		now:             time.Now,
	}
}

type impl struct {
	employeeStore employeestore.Provider
	docAssembly   docassembly.Provider
	notifier      notification.Provider

	newStore      func(tx *gorm.DB) formupdatestore.Provider
	newAuditStore func(tx *gorm.DB) auditstore.Provider
	newSignStore  func(tx *gorm.DB) signaturestore.Provider
	transaction   func(fn func(tx *gorm.DB) error) error

	defaultTTLHours int
	linkDomain      string
	now             func() time.Time
}

func (i *impl) GenerateUpdateLink(actor Actor, employeeID string, formType models.FormType, ttlHours int) (view onboardingapimodels.FormUpdateView, err error) {
	logger := log.
		WithField("employee_id", employeeID).
		WithField("form_type", formType)
	if !formType.IsKnown() {
		return view, errors.Errorf("unknown form type: %v", formType)
	}
	employee, err := i.employeeStore.GetByID(employeeID)
	if err != nil {
		return view, err
	}
	if employee == nil {
		return view, errors.New("employee not found")
	}
	if ttlHours <= 0 {
		ttlHours = i.defaultTTLHours
	}
	token, err := newToken()
	if err != nil {
		return view, err
	}
	now := i.now()
	rec := dbmodels.FormUpdateSession{
		EmployeeID: employeeID,
		FormType:   formType,
		Token:      token,
		Status:     models.FormUpdatePending,
		ExpiresAt:  now.Add(time.Duration(ttlHours) * time.Hour),
		Payload:    dbmodels.FormPayload{},
	}
	err = i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		auditStore := i.newAuditStore(tx)
		existing, err := store.ListByEmployeeAndForm(employeeID, formType)
		if err != nil {
			return err
		}
		for _, prior := range existing {
			if prior.IsActive(now) {
				return models.ErrConflictingActiveUpdate
			}
			if prior.IsExpiredAt(now) && prior.Status != models.FormUpdateExpired {
				// lazy expiry of the stale window before reissuing
				if err = i.expire(store, auditStore, prior); err != nil {
					return err
				}
			}
		}
		id, err := store.Create(rec)
		if err != nil {
			// a racing issue for the same (employee, form) pair lands on
			// the partial unique index instead of the existence check
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrConflictingActiveUpdate
			}
			return err
		}
		rec.ID = id
		return auditStore.Append(dbmodels.AuditEntry{
			SessionID: id,
			Actor:     actor.Name,
			ActorRole: actor.Role,
			Action:    models.AuditActionUpdateIssued,
			Changes: dbmodels.EntityChanges{
				Description: fmt.Sprintf("update link for %s issued, valid %dh", formType.ToHuman(), ttlHours),
			},
		})
	})
	if err != nil {
		if !errors.Is(err, models.ErrConflictingActiveUpdate) {
			logger.WithError(err).Error("update link issue failed")
		}
		return view, err
	}
	logger.WithField("rec_id", rec.ID).Info("form update link issued")
	i.notify(notification.EventFormUpdateLink, employee.Email,
		fmt.Sprintf("You can update your %s here: %s/form-update/%s (valid until %s).",
			formType.ToHuman(), i.linkDomain, token, rec.ExpiresAt.Format("2006-01-02 15:04")))
	return onboardingapimodels.FormUpdateConvert(rec), nil
}

func (i *impl) ValidateUpdateToken(token string) (view onboardingapimodels.FormUpdateView, err error) {
	err = i.transaction(func(tx *gorm.DB) error {
		rec, err := i.resolveToken(tx, token)
		if err != nil {
			return err
		}
		view = onboardingapimodels.FormUpdateConvert(*rec)
		return nil
	})
	return view, err
}

// SaveFormUpdate consumes the token: compliance-checks the payload,
// captures the fresh signature and re-assembles the affected document.
// Forms that need a counter-approval stay in submitted until HR acts.
func (i *impl) SaveFormUpdate(ctx context.Context, token string, data SaveData) (view onboardingapimodels.FormUpdateView, err error) {
	var rec *dbmodels.FormUpdateSession
	err = i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		rec, err = i.resolveToken(tx, token)
		if err != nil {
			return err
		}
		check := compliance.Validate(rec.FormType, data.Payload)
		if err = check.AsError(); err != nil {
			return err
		}
		signStore := i.newSignStore(tx)
		prior, err := signStore.GetActive(rec.ID, rec.FormType, models.SignerEmployee)
		if err != nil {
			return err
		}
		signatureID, err := signStore.Create(dbmodels.DigitalSignature{
			SessionID:       rec.ID,
			FormType:        rec.FormType,
			SignerRole:      models.SignerEmployee,
			Image:           data.SignatureImage,
			CapturedAt:      i.now(),
			OriginIP:        data.OriginIP,
			AttestationHash: helpers.TextHash(data.AttestationText),
		})
		if err != nil {
			return err
		}
		if prior != nil {
			if err = signStore.MarkSuperseded(prior.ID, signatureID); err != nil {
				return err
			}
		}
		now := i.now()
		rec.Status = models.FormUpdateSubmitted
		rec.SubmittedAt = &now
		rec.Payload = data.Payload
		err = store.Update(rec.ID, map[string]interface{}{
			"status":       rec.Status,
			"submitted_at": rec.SubmittedAt,
			"payload":      rec.Payload,
		})
		if err != nil {
			return err
		}
		return i.newAuditStore(tx).Append(dbmodels.AuditEntry{
			SessionID: rec.ID,
			Actor:     rec.EmployeeID,
			ActorRole: models.ActorEmployee,
			Action:    models.AuditActionUpdateSaved,
			Changes: dbmodels.EntityChanges{
				Description: fmt.Sprintf("%s update submitted with %d fields", rec.FormType.ToHuman(), len(data.Payload)),
			},
		})
	})
	if err != nil {
		return view, err
	}
	if !rec.FormType.RequiresApproval() {
		// effective immediately, rebuild the document now
		if err = i.assemble(ctx, *rec); err != nil {
			return view, err
		}
	}
	log.
		WithField("rec_id", rec.ID).
		WithField("form_type", rec.FormType).
		Info("form update saved")
	if employee, lookupErr := i.employeeStore.GetByID(rec.EmployeeID); lookupErr == nil && employee != nil {
		i.notify(notification.EventFormUpdateSaved, employee.Email,
			fmt.Sprintf("Your %s update has been received.", rec.FormType.ToHuman()))
	}
	return onboardingapimodels.FormUpdateConvert(*rec), nil
}

func (i *impl) ApproveFormUpdate(ctx context.Context, id string, actor Actor) (view onboardingapimodels.FormUpdateView, err error) {
	logger := log.WithField("rec_id", id)
	var rec *dbmodels.FormUpdateSession
	err = i.transaction(func(tx *gorm.DB) error {
		store := i.newStore(tx)
		rec, err = store.GetByID(id)
		if err != nil {
			return err
		}
		if rec == nil {
			return models.ErrTokenNotFound
		}
		if rec.Status != models.FormUpdateSubmitted || !rec.FormType.RequiresApproval() {
			return errors.Errorf("update %s is not awaiting approval", id)
		}
		now := i.now()
		rec.Status = models.FormUpdateApproved
		rec.ApprovedAt = &now
		rec.ApprovedBy = actor.Name
		err = store.Update(id, map[string]interface{}{
			"status":      rec.Status,
			"approved_at": rec.ApprovedAt,
			"approved_by": rec.ApprovedBy,
		})
		if err != nil {
			return err
		}
		return i.newAuditStore(tx).Append(dbmodels.AuditEntry{
			SessionID: id,
			Actor:     actor.Name,
			ActorRole: actor.Role,
			Action:    models.AuditActionUpdateApproved,
			Changes:   dbmodels.EntityChanges{Description: "counter-approval recorded"},
		})
	})
	if err != nil {
		logger.WithError(err).Warn("form update approval failed")
		return view, err
	}
	if err = i.assemble(ctx, *rec); err != nil {
		return view, err
	}
	logger.Info("form update approved")
	return onboardingapimodels.FormUpdateConvert(*rec), nil
}

// resolveToken maps a raw token onto a usable update session, lazily
// expiring a stale one. A consumed token reads as expired, not missing,
// so the caller cannot distinguish replay from timeout.
func (i *impl) resolveToken(tx *gorm.DB, token string) (*dbmodels.FormUpdateSession, error) {
	store := i.newStore(tx)
	rec, err := store.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, models.ErrTokenNotFound
	}
	now := i.now()
	if rec.IsExpiredAt(now) {
		if rec.Status != models.FormUpdateExpired {
			if err = i.expire(store, i.newAuditStore(tx), *rec); err != nil {
				return nil, err
			}
		}
		return nil, models.ErrTokenExpired
	}
	if !rec.IsActive(now) {
		return nil, models.ErrTokenExpired
	}
	return rec, nil
}

func (i *impl) expire(store formupdatestore.Provider, auditStore auditstore.Provider, rec dbmodels.FormUpdateSession) error {
	err := store.Update(rec.ID, map[string]interface{}{"status": models.FormUpdateExpired})
	if err != nil {
		return err
	}
	return auditStore.Append(dbmodels.AuditEntry{
		SessionID: rec.ID,
		Actor:     models.SystemActor,
		ActorRole: models.ActorSystem,
		Action:    models.AuditActionExpired,
		Changes: dbmodels.EntityChanges{
			Description: fmt.Sprintf("update window closed at %s", rec.ExpiresAt.Format(time.RFC3339)),
		},
	})
}

func (i *impl) assemble(ctx context.Context, rec dbmodels.FormUpdateSession) error {
	signatures, err := i.newSignStore(db.DB).ListBySession(rec.ID)
	if err != nil {
		return err
	}
	_, err = i.docAssembly.Assemble(ctx, docassembly.AssembleData{
		SessionID:  rec.ID,
		FormType:   rec.FormType,
		Payload:    rec.Payload,
		Signatures: signatures,
	})
	if err != nil {
		log.
			WithField("rec_id", rec.ID).
			WithError(err).
			Error("updated document assembly failed")
	}
	return err
}

func (i *impl) notify(event notification.EventType, recipient, message string) {
	if i.notifier == nil || recipient == "" {
		return
	}
	i.notifier.Notify(event, recipient, message)
}

// newToken returns an unguessable URL-safe capability token.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "token generation failed")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
