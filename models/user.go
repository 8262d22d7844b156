package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// User holds the gamification-relevant subset of a CreatorCircle
// profile. XP and Level are always written together; Level is never
// stored without being recomputed from XP.
type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Username           string         `gorm:"size:64;not null" json:"username"`
	AvatarURL          string         `gorm:"size:512" json:"avatar_url"`
	XP                 int            `gorm:"not null;default:0" json:"xp"`
	Level              int            `gorm:"not null;default:1" json:"level"`
	Badges             string         `gorm:"type:text" json:"-"`
	LoginStreak        int            `gorm:"not null;default:0" json:"login_streak"`
	LastLoginAt        *time.Time     `json:"last_login_at"`
	LastActivityAt     *time.Time     `json:"last_activity_at"`
	LastDecayAppliedAt *time.Time     `json:"-"`
	IsVerified         bool           `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures new profiles start at level 1 and that
// timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Level < 1 {
		u.Level = 1
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// BadgeList decodes the JSON badge set. An empty column yields an
// empty list.
func (u *User) BadgeList() []string {
	if u.Badges == "" {
		return []string{}
	}
	var badges []string
	if err := json.Unmarshal([]byte(u.Badges), &badges); err != nil {
		return []string{}
	}
	return badges
}

// SetBadgeList replaces the stored badge set.
func (u *User) SetBadgeList(badges []string) {
	b, err := json.Marshal(badges)
	if err != nil {
		return
	}
	u.Badges = string(b)
}
