package docassembly

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"onboarding-backend/db"
	documentstore "onboarding-backend/lib/doc-assembly/store"
	filestorage "onboarding-backend/lib/file-storage"
	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type AssembleData struct {
	SessionID string
	FormType  models.FormType
	Payload   map[string]string
	// machine-extracted values, only used to fill fields no human entered
	OCRFields  map[string]string
	Signatures []dbmodels.DigitalSignature
}

type Provider interface {
	Assemble(ctx context.Context, data AssembleData) (*dbmodels.GeneratedDocument, error)
	GetLatest(ctx context.Context, sessionID string, formType models.FormType) (*dbmodels.GeneratedDocument, []byte, error)
	ListBySession(sessionID string) ([]dbmodels.GeneratedDocument, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store:       documentstore.NewInstance(db.DB),
		fileStorage: filestorage.Instance,
	}
}

type impl struct {
	store       documentstore.Provider
	fileStorage filestorage.Provider
}

// Assemble merges form data, OCR output and signatures into the filled
// document, uploads the PDF and records the new version with full field
// provenance. It fails closed: no required signature, no document.
func (i impl) Assemble(ctx context.Context, data AssembleData) (*dbmodels.GeneratedDocument, error) {
	logger := log.
		WithField("session_id", data.SessionID).
		WithField("form_type", data.FormType)

	signatures, signatureIDs, err := activeSignatures(data.FormType, data.Signatures)
	if err != nil {
		logger.WithError(err).Warn("document assembly blocked")
		return nil, err
	}
	merged, provenance := mergeFields(data.FormType, data.Payload, data.OCRFields)
	pdfFile, err := renderPDF(data.FormType, merged, signatures)
	if err != nil {
		logger.WithError(err).Error("document rendering failed")
		return nil, err
	}
	version, err := i.store.NextVersion(data.SessionID, data.FormType)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("sessions/%s/%s/v%d.pdf", data.SessionID, data.FormType, version)
	if err = i.fileStorage.Upload(ctx, key, pdfFile); err != nil {
		return nil, err
	}
	rec := dbmodels.GeneratedDocument{
		SessionID:    data.SessionID,
		FormType:     data.FormType,
		Version:      version,
		StorageKey:   key,
		Provenance:   provenance,
		SignatureIDs: signatureIDs,
		GeneratedAt:  time.Now(),
	}
	if _, err = i.store.Create(rec); err != nil {
		logger.WithError(err).Error("document record write failed")
		return nil, err
	}
	logger.
		WithField("version", version).
		Info("document assembled")
	return &rec, nil
}

func (i impl) GetLatest(ctx context.Context, sessionID string, formType models.FormType) (*dbmodels.GeneratedDocument, []byte, error) {
	rec, err := i.store.GetLatest(sessionID, formType)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, nil
	}
	body, err := i.fileStorage.GetFile(ctx, rec.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return rec, body, nil
}

func (i impl) ListBySession(sessionID string) ([]dbmodels.GeneratedDocument, error) {
	return i.store.ListBySession(sessionID)
}

// activeSignatures picks the non-superseded signature per required role.
// Any gap fails the whole assembly with ErrMissingSignature.
func activeSignatures(formType models.FormType, signatures []dbmodels.DigitalSignature) (map[models.SignerRole][]byte, []string, error) {
	byRole := map[models.SignerRole][]byte{}
	ids := []string{}
	for _, role := range RequiredSigners(formType) {
		var found *dbmodels.DigitalSignature
		for idx := range signatures {
			sig := signatures[idx]
			if sig.FormType != formType || sig.SignerRole != role || !sig.IsActive() {
				continue
			}
			if found == nil || sig.CapturedAt.After(found.CapturedAt) {
				found = &signatures[idx]
			}
		}
		if found == nil {
			return nil, nil, models.ErrMissingSignature
		}
		byRole[role] = found.Image
		ids = append(ids, found.ID)
	}
	return byRole, ids, nil
}
