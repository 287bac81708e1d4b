package signaturestore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

// Signature rows are immutable: the only write after creation is setting
// the superseded pointer when a re-sign lands. No delete exists.
type Provider interface {
	Create(rec dbmodels.DigitalSignature) (id string, err error)
	GetActive(sessionID string, formType models.FormType, role models.SignerRole) (*dbmodels.DigitalSignature, error)
	ListBySession(sessionID string) ([]dbmodels.DigitalSignature, error)
	MarkSuperseded(id, supersededByID string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.DigitalSignature) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetActive(sessionID string, formType models.FormType, role models.SignerRole) (*dbmodels.DigitalSignature, error) {
	rec := dbmodels.DigitalSignature{}
	err := i.db.
		Where("session_id = ?", sessionID).
		Where("form_type = ?", formType).
		Where("signer_role = ?", role).
		Where("superseded_by_id IS NULL").
		Order("captured_at desc").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) ListBySession(sessionID string) (list []dbmodels.DigitalSignature, err error) {
	err = i.db.
		Where("session_id = ?", sessionID).
		Order("captured_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) MarkSuperseded(id, supersededByID string) error {
	tx := i.db.
		Model(&dbmodels.DigitalSignature{}).
		Where("id = ?", id).
		Where("superseded_by_id IS NULL").
		Update("superseded_by_id", supersededByID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("signature record not found or already superseded")
	}
	return nil
}
