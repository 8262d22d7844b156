package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creatorcircle/xpengine/engine"
	"github.com/creatorcircle/xpengine/models"
)

// ProfileStore backs engine.ProfileStore with the users table.
type ProfileStore struct {
	db *gorm.DB
}

// CounterStore backs engine.CounterStore with the xp_daily_counters
// table.
type CounterStore struct {
	db *gorm.DB
}

// LogStore backs engine.LogStore with the append-only xp_logs table.
type LogStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore { return &ProfileStore{db: db} }
func NewCounterStore(db *gorm.DB) *CounterStore { return &CounterStore{db: db} }
func NewLogStore(db *gorm.DB) *LogStore         { return &LogStore{db: db} }

// Load returns the user's gamification state, or (nil, nil) when the
// user does not exist.
func (s *ProfileStore) Load(ctx context.Context, userID uint) (*engine.GamificationState, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	return &engine.GamificationState{
		XP:                 user.XP,
		Level:              user.Level,
		Badges:             user.BadgeList(),
		LoginStreak:        user.LoginStreak,
		LastLoginAt:        user.LastLoginAt,
		LastActivityAt:     user.LastActivityAt,
		LastDecayAppliedAt: user.LastDecayAppliedAt,
		IsVerified:         user.IsVerified,
	}, nil
}

// Update writes only the fields present in the partial update.
func (s *ProfileStore) Update(ctx context.Context, userID uint, fields engine.ProfileUpdate) error {
	values := map[string]interface{}{}
	if fields.XP != nil {
		values["xp"] = *fields.XP
	}
	if fields.Level != nil {
		values["level"] = *fields.Level
	}
	if fields.Badges != nil {
		u := models.User{}
		u.SetBadgeList(fields.Badges)
		values["badges"] = u.Badges
	}
	if fields.LoginStreak != nil {
		values["login_streak"] = *fields.LoginStreak
	}
	if fields.LastLoginAt != nil {
		values["last_login_at"] = *fields.LastLoginAt
	}
	if fields.LastActivityAt != nil {
		values["last_activity_at"] = *fields.LastActivityAt
	}
	if fields.LastDecayAppliedAt != nil {
		values["last_decay_applied_at"] = *fields.LastDecayAppliedAt
	}
	if len(values) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(values).Error; err != nil {
		return fmt.Errorf("update user %d: %w", userID, err)
	}
	return nil
}

// EnsureDay idempotently creates the day's counter row with zero
// defaults. Concurrent first awards of a day must not error, so the
// insert ignores the unique (user_id, date_key) conflict.
func (s *CounterStore) EnsureDay(ctx context.Context, userID uint, dateKey string) error {
	row := models.XpDailyCounter{UserID: userID, DateKey: dateKey, Counters: "{}"}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("ensure day counters %d/%s: %w", userID, dateKey, err)
	}
	return nil
}

// Load returns the day's counters. A missing row reads as all zeroes.
func (s *CounterStore) Load(ctx context.Context, userID uint, dateKey string) (engine.DayCounters, error) {
	var row models.XpDailyCounter
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date_key = ?", userID, dateKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.DayCounters{Counts: map[engine.Action]int{}}, nil
		}
		return engine.DayCounters{}, fmt.Errorf("load day counters %d/%s: %w", userID, dateKey, err)
	}

	counts := map[engine.Action]int{}
	for action, n := range row.CounterMap() {
		counts[engine.Action(action)] = n
	}
	return engine.DayCounters{Total: row.Total, Counts: counts}, nil
}

// Update persists the day's totals.
func (s *CounterStore) Update(ctx context.Context, userID uint, dateKey string, c engine.DayCounters) error {
	raw := map[string]int{}
	for action, n := range c.Counts {
		raw[string(action)] = n
	}
	row := models.XpDailyCounter{}
	row.SetCounterMap(raw)

	err := s.db.WithContext(ctx).Model(&models.XpDailyCounter{}).
		Where("user_id = ? AND date_key = ?", userID, dateKey).
		Updates(map[string]interface{}{"total": c.Total, "counters": row.Counters}).Error
	if err != nil {
		return fmt.Errorf("update day counters %d/%s: %w", userID, dateKey, err)
	}
	return nil
}

// Append records one immutable audit entry.
func (s *LogStore) Append(ctx context.Context, userID uint, entry engine.LogEntry) error {
	row := models.XpLog{
		UserID:    userID,
		Action:    string(entry.Action),
		Delta:     entry.Delta,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append xp log for user %d: %w", userID, err)
	}
	return nil
}
