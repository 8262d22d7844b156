package models

import "time"

// XpLog is one append-only audit entry per applied award or deduction.
// Delta is the value actually applied after modifiers and clamping.
// Rows are never updated or deleted by the service.
type XpLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Action    string    `gorm:"size:40;index;not null" json:"action"`
	Delta     int       `gorm:"not null" json:"delta"`
	Note      string    `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
