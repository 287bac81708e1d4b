package signature

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"onboarding-backend/db"
	signaturestore "onboarding-backend/lib/signature/store"
	"onboarding-backend/lib/utils/helpers"
	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type CaptureData struct {
	SessionID       string
	FormType        models.FormType
	SignerRole      models.SignerRole
	Image           []byte
	OriginIP        string
	AttestationText string
}

type Provider interface {
	Capture(data CaptureData) (id string, err error)
	GetActive(sessionID string, formType models.FormType, role models.SignerRole) (*dbmodels.DigitalSignature, error)
	ListBySession(sessionID string) ([]dbmodels.DigitalSignature, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store: signaturestore.NewInstance(db.DB),
	}
}

type impl struct {
	store signaturestore.Provider
}

// Capture inserts a new immutable signature record. A re-sign never
// mutates the old record beyond linking it to its successor; the prior
// image stays available for audit.
func (i impl) Capture(data CaptureData) (id string, err error) {
	logger := log.
		WithField("session_id", data.SessionID).
		WithField("form_type", data.FormType).
		WithField("signer_role", data.SignerRole)
	if len(data.Image) == 0 {
		return "", errors.New("signature image is empty")
	}
	if data.AttestationText == "" {
		return "", errors.New("attestation text is required")
	}
	rec := dbmodels.DigitalSignature{
		SessionID:       data.SessionID,
		FormType:        data.FormType,
		SignerRole:      data.SignerRole,
		Image:           data.Image,
		CapturedAt:      time.Now(),
		OriginIP:        data.OriginIP,
		AttestationHash: helpers.TextHash(data.AttestationText),
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		store := signaturestore.NewInstance(tx)
		prior, err := store.GetActive(data.SessionID, data.FormType, data.SignerRole)
		if err != nil {
			return err
		}
		id, err = store.Create(rec)
		if err != nil {
			return err
		}
		if prior != nil {
			return store.MarkSuperseded(prior.ID, id)
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("signature capture failed")
		return "", err
	}
	logger.WithField("rec_id", id).Info("signature captured")
	return id, nil
}

func (i impl) GetActive(sessionID string, formType models.FormType, role models.SignerRole) (*dbmodels.DigitalSignature, error) {
	return i.store.GetActive(sessionID, formType, role)
}

func (i impl) ListBySession(sessionID string) ([]dbmodels.DigitalSignature, error) {
	return i.store.ListBySession(sessionID)
}
