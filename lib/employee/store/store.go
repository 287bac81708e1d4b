package employeestore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "onboarding-backend/models/db"
)

// Directory CRUD lives in another service; this store only resolves
// back-references for sessions and notifications.
type Provider interface {
	GetByID(id string) (*dbmodels.Employee, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetByID(id string) (*dbmodels.Employee, error) {
	rec := dbmodels.Employee{}
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
