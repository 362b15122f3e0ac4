package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a persisted direct message to a single user, e.g. "you were
// removed from project X". Realtime delivery is best-effort; this row is what
// an offline user sees on their next fetch.
type Notification struct {
	BaseModel

	UserID  uint           `gorm:"not null;index"`
	Type    string         `gorm:"not null"`
	Payload datatypes.JSON `gorm:"type:jsonb"`
	ReadAt  *time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
