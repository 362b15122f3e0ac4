package models

import "time"

// BaseModel is gorm.Model without soft-delete. Board entities are removed for
// real: unique indexes stay enforceable and ON DELETE CASCADE actually fires.
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
