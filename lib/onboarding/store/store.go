package onboardingstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.OnboardingSession) (id string, err error)
	GetByID(id string) (rec *dbmodels.OnboardingSession, err error)
	// GetByIDForUpdate takes a row lock so the phase check and the write
	// below it are atomic against a concurrent actor
	GetByIDForUpdate(id string) (rec *dbmodels.OnboardingSession, err error)
	GetActiveByEmployee(employeeID string) (rec *dbmodels.OnboardingSession, err error)
	Update(id string, updMap map[string]interface{}) error
	ListByPhase(phase models.OnboardingPhase) (list []dbmodels.OnboardingSession, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.OnboardingSession) (id string, err error) {
	err = i.db.Omit(clause.Associations).
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.OnboardingSession, error) {
	rec := dbmodels.OnboardingSession{}
	err := i.db.
		Where("id = ?", id).
		Preload("Employee").
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

func (i impl) GetByIDForUpdate(id string) (*dbmodels.OnboardingSession, error) {
	rec := dbmodels.OnboardingSession{}
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
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

func (i impl) GetActiveByEmployee(employeeID string) (*dbmodels.OnboardingSession, error) {
	rec := dbmodels.OnboardingSession{}
	err := i.db.
		Where("employee_id = ?", employeeID).
		Where("phase NOT IN ?", []models.OnboardingPhase{models.PhaseApproved, models.PhaseRejected, models.PhaseExpired}).
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

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.OnboardingSession{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("session record not found")
	}
	return nil
}

func (i impl) ListByPhase(phase models.OnboardingPhase) (list []dbmodels.OnboardingSession, err error) {
	err = i.db.
		Where("phase = ?", phase).
		Preload("Employee").
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
