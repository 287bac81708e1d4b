package formupdatestore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.FormUpdateSession) (id string, err error)
	GetByID(id string) (*dbmodels.FormUpdateSession, error)
	// GetByToken resolves the capability token itself; expiry and
	// consumption checks stay with the caller
	GetByToken(token string) (*dbmodels.FormUpdateSession, error)
	ListByEmployeeAndForm(employeeID string, formType models.FormType) ([]dbmodels.FormUpdateSession, error)
	Update(id string, updMap map[string]interface{}) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.FormUpdateSession) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.FormUpdateSession, error) {
	rec := dbmodels.FormUpdateSession{}
	err := i.db.
		Where("id = ?", id).
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

func (i impl) GetByToken(token string) (*dbmodels.FormUpdateSession, error) {
	rec := dbmodels.FormUpdateSession{}
	err := i.db.
		Where("token = ?", token).
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

func (i impl) ListByEmployeeAndForm(employeeID string, formType models.FormType) (list []dbmodels.FormUpdateSession, err error) {
	err = i.db.
		Where("employee_id = ?", employeeID).
		Where("form_type = ?", formType).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.FormUpdateSession{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("form update record not found")
	}
	return nil
}
