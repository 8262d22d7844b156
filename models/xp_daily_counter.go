package models

import (
	"encoding/json"
	"time"
)

// XpDailyCounter stores one user's XP totals for one UTC calendar day.
// DateKey uses the non-zero-padded "YYYY-M-D" format; rows accumulate
// indefinitely, retention is an external concern.
type XpDailyCounter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;index:idx_xp_daily_user_date,unique;not null" json:"user_id"`
	DateKey   string    `gorm:"index:idx_xp_daily_user_date,unique;size:16;not null" json:"date_key"`
	Total     int       `gorm:"not null;default:0" json:"total"`
	Counters  string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CounterMap decodes the per-action award counts.
func (c *XpDailyCounter) CounterMap() map[string]int {
	counts := map[string]int{}
	if c.Counters == "" {
		return counts
	}
	if err := json.Unmarshal([]byte(c.Counters), &counts); err != nil {
		return map[string]int{}
	}
	return counts
}

// SetCounterMap replaces the per-action award counts.
func (c *XpDailyCounter) SetCounterMap(counts map[string]int) {
	b, err := json.Marshal(counts)
	if err != nil {
		return
	}
	c.Counters = string(b)
}
