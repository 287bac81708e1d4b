package dbmodels

import (
	"time"

	"onboarding-backend/models"
)

// DigitalSignature is immutable once created. A re-sign inserts a new row
// and sets SupersededByID on the old one; nothing is ever deleted.
type DigitalSignature struct {
	BaseModel
	SessionID  string            `gorm:"type:varchar(36);index"`
	FormType   models.FormType   `gorm:"type:varchar(32)"`
	SignerRole models.SignerRole `gorm:"type:varchar(16)"`
	Image      []byte
	CapturedAt time.Time
	OriginIP   string `gorm:"type:varchar(45)"`
	// sha256 of the legal attestation text shown at capture time
	AttestationHash string  `gorm:"type:varchar(64)"`
	SupersededByID  *string `gorm:"type:varchar(36)"`
}

func (s DigitalSignature) IsActive() bool {
	return s.SupersededByID == nil
}
