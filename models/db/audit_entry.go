package dbmodels

import (
	"time"

	"onboarding-backend/models"
)

// AuditEntry is append-only: the store exposes no update or delete.
// Seq is monotonic per session and assigned inside the appending transaction.
type AuditEntry struct {
	ID        string `gorm:"primaryKey;default:uuid_generate_v4()"`
	SessionID string `gorm:"type:varchar(36);index:idx_session_seq,unique"`
	Seq       int64  `gorm:"index:idx_session_seq,unique"`
	Actor     string `gorm:"type:varchar(255)"`
	ActorRole models.ActorRole   `gorm:"type:varchar(16)"`
	Action    models.AuditAction `gorm:"type:varchar(64)"`
	Before    models.OnboardingPhase `gorm:"type:varchar(32)"`
	After     models.OnboardingPhase `gorm:"type:varchar(32)"`
	Changes   EntityChanges          `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}
