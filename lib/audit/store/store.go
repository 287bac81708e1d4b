package auditstore

import (
	"gorm.io/gorm"

	dbmodels "onboarding-backend/models/db"
)

// Provider is append-only by construction: no update or delete method
// exists on this interface, and none may be added.
type Provider interface {
	Append(rec dbmodels.AuditEntry) error
	List(sessionID string) ([]dbmodels.AuditEntry, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

// Append assigns the per-session sequence number inside the caller's
// transaction; the unique (session_id, seq) index turns two concurrent
// appenders into a serialization failure instead of a gap or duplicate.
func (i impl) Append(rec dbmodels.AuditEntry) error {
	var maxSeq int64
	err := i.db.
		Model(&dbmodels.AuditEntry{}).
		Where("session_id = ?", rec.SessionID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).
		Error
	if err != nil {
		return err
	}
	rec.Seq = maxSeq + 1
	return i.db.
		Create(&rec).
		Error
}

func (i impl) List(sessionID string) (list []dbmodels.AuditEntry, err error) {
	err = i.db.
		Where("session_id = ?", sessionID).
		Order("seq").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
