package models

import "time"

// BaseModel is shared by all persisted entities. Unlike gorm.Model it
// carries no DeletedAt column, so Delete performs a real delete and
// database-level cascades apply. Project removal is handled separately
// through its IsActive flag.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
