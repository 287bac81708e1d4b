package dbmodels

import (
	"time"

	"github.com/lib/pq"

	"onboarding-backend/models"
)

// GeneratedDocument is the record of one assembled, signed document.
// The PDF bytes live in the blob store under StorageKey; the row keeps
// the provenance of every field and the signatures embedded in it.
type GeneratedDocument struct {
	BaseModel
	SessionID  string          `gorm:"type:varchar(36);index:idx_session_form"`
	FormType   models.FormType `gorm:"type:varchar(32);index:idx_session_form"`
	Version    int             `gorm:"not null"`
	StorageKey string          `gorm:"type:varchar(255)"`
	Provenance ProvenanceList  `gorm:"type:jsonb"`
	// ids of the DigitalSignature rows embedded into the PDF
	SignatureIDs pq.StringArray `gorm:"type:text[]"`
	GeneratedAt  time.Time
}
