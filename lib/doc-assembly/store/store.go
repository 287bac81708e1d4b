package documentstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.GeneratedDocument) (id string, err error)
	NextVersion(sessionID string, formType models.FormType) (int, error)
	GetLatest(sessionID string, formType models.FormType) (*dbmodels.GeneratedDocument, error)
	ListBySession(sessionID string) ([]dbmodels.GeneratedDocument, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.GeneratedDocument) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) NextVersion(sessionID string, formType models.FormType) (int, error) {
	var maxVersion int
	err := i.db.
		Model(&dbmodels.GeneratedDocument{}).
		Where("session_id = ?", sessionID).
		Where("form_type = ?", formType).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).
		Error
	if err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func (i impl) GetLatest(sessionID string, formType models.FormType) (*dbmodels.GeneratedDocument, error) {
	rec := dbmodels.GeneratedDocument{}
	err := i.db.
		Where("session_id = ?", sessionID).
		Where("form_type = ?", formType).
		Order("version desc").
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

func (i impl) ListBySession(sessionID string) (list []dbmodels.GeneratedDocument, err error) {
	err = i.db.
		Where("session_id = ?", sessionID).
		Order("form_type, version").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
