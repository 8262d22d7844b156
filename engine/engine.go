package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownAction is returned when an action kind is not in the
// catalog. Business-rule rejections are not errors; see Outcome.
var ErrUnknownAction = errors.New("unknown xp action")

// ActionInactivityDecay is not awardable; it only appears as the
// action kind of decay deduction log entries.
const ActionInactivityDecay Action = "INACTIVITY_DECAY"

// GamificationState is the XP-relevant subset of a user profile.
type GamificationState struct {
	XP                 int
	Level              int
	Badges             []string
	LoginStreak        int
	LastLoginAt        *time.Time
	LastActivityAt     *time.Time
	LastDecayAppliedAt *time.Time
	IsVerified         bool
}

// ProfileUpdate is a partial write to the profile store. Nil fields
// are left untouched.
type ProfileUpdate struct {
	XP                 *int
	Level              *int
	Badges             []string
	LoginStreak        *int
	LastLoginAt        *time.Time
	LastActivityAt     *time.Time
	LastDecayAppliedAt *time.Time
}

// DayCounters holds one user's totals for one UTC calendar day.
type DayCounters struct {
	Total  int
	Counts map[Action]int
}

// LogEntry is one immutable audit record per applied award/deduction.
type LogEntry struct {
	Action    Action
	Delta     int
	Note      string
	CreatedAt time.Time
}

// ProfileStore loads and partially updates per-user gamification
// state. Load returns (nil, nil) when the user does not exist.
type ProfileStore interface {
	Load(ctx context.Context, userID uint) (*GamificationState, error)
	Update(ctx context.Context, userID uint, fields ProfileUpdate) error
}

// CounterStore manages the per-user per-day counter records.
// EnsureDay idempotently creates today's record with zero defaults.
type CounterStore interface {
	EnsureDay(ctx context.Context, userID uint, dateKey string) error
	Load(ctx context.Context, userID uint, dateKey string) (DayCounters, error)
	Update(ctx context.Context, userID uint, dateKey string, c DayCounters) error
}

// LogStore appends immutable audit entries.
type LogStore interface {
	Append(ctx context.Context, userID uint, entry LogEntry) error
}

// Notifier delivers level-up events. Fire-and-forget: implementations
// must swallow and log their own failures.
type Notifier interface {
	NotifyLevelUp(ctx context.Context, userID uint, newLevel int)
}

// Metadata carries optional per-award hints.
type Metadata struct {
	// NotifyTarget overrides the level-up notification recipient.
	NotifyTarget uint
	// Note is free text recorded on the audit log entry.
	Note string
	// RecentCount is the caller-observed count of recent same-kind
	// actions, used for anti-spam gating.
	RecentCount int
}

// Outcome classifies what an Award call did.
type Outcome int

const (
	Applied Outcome = iota
	RejectedUserNotFound
	RejectedActionLimit
	RejectedAntiSpam
	RejectedDailyCap
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RejectedUserNotFound:
		return "rejected_user_not_found"
	case RejectedActionLimit:
		return "rejected_daily_limit"
	case RejectedAntiSpam:
		return "rejected_anti_spam"
	case RejectedDailyCap:
		return "rejected_daily_cap"
	default:
		return "unknown"
	}
}

// Result reports the effect of an Award call.
type Result struct {
	Outcome   Outcome
	Delta     int
	XP        int
	Level     int
	LeveledUp bool
}

// Engine applies XP awards against pluggable stores.
//
// Award calls for the same user are read-modify-write without mutual
// exclusion: two concurrent awards may lose one update on the profile
// or the day counters. This mirrors the source system and is accepted
// for gamification points; callers needing stronger guarantees must
// serialize per user upstream.
type Engine struct {
	profiles ProfileStore
	counters CounterStore
	logs     LogStore
	notifier Notifier
	logger   *zap.Logger

	// now is swapped in tests.
	now func() time.Time
}

// New builds an Engine. notifier and logger may be nil.
func New(profiles ProfileStore, counters CounterStore, logs LogStore, notifier Notifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		profiles: profiles,
		counters: counters,
		logs:     logs,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Award applies one action for one user: pending decay, streak bonus,
// per-action daily limit, anti-spam gate, verified multiplier, daily
// cap clamp, xp/level/badges persistence, audit log, level-up notify.
//
// Business-rule rejections come back as a non-Applied Outcome with a
// nil error. Errors are persistence failures only; on error no further
// write step has run, so the audit log never references an unapplied
// delta.
func (e *Engine) Award(ctx context.Context, userID uint, action Action, meta Metadata) (Result, error) {
	if !KnownAction(action) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	state, err := e.profiles.Load(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}
	if state == nil {
		return Result{Outcome: RejectedUserNotFound}, nil
	}

	now := e.now().UTC()

	if err := e.applyPendingDecay(ctx, userID, state, now); err != nil {
		return Result{}, err
	}

	delta := BaseDelta(action)

	if action == ActionLoginDaily {
		bonus, err := e.advanceLoginStreak(ctx, userID, state, now)
		if err != nil {
			return Result{}, err
		}
		delta += bonus
	}

	dateKey := DateKey(now)
	if err := e.counters.EnsureDay(ctx, userID, dateKey); err != nil {
		return Result{}, fmt.Errorf("ensure day counters: %w", err)
	}
	day, err := e.counters.Load(ctx, userID, dateKey)
	if err != nil {
		return Result{}, fmt.Errorf("load day counters: %w", err)
	}
	if limit, ok := DailyLimit(action); ok && day.Counts[action] >= limit {
		return e.rejected(RejectedActionLimit, state, userID, action)
	}

	if action == ActionPostCreated && meta.RecentCount > AntiSpamRecentMax {
		return e.rejected(RejectedAntiSpam, state, userID, action)
	}

	if state.IsVerified && delta > 0 {
		delta = int(math.Round(float64(delta) * VerifiedMultiplier))
	}

	// The daily cap only suppresses earnings, never deductions.
	if delta > 0 {
		if day.Total >= DailyXPCap {
			return e.rejected(RejectedDailyCap, state, userID, action)
		}
		if day.Total+delta > DailyXPCap {
			delta = DailyXPCap - day.Total
		}
	}

	newXP := state.XP + delta
	if newXP < 0 {
		newXP = 0
	}
	applied := newXP - state.XP
	newLevel := ComputeLevel(newXP)

	update := ProfileUpdate{XP: &newXP, Level: &newLevel, LastActivityAt: &now}
	if err := e.profiles.Update(ctx, userID, update); err != nil {
		return Result{}, fmt.Errorf("update profile: %w", err)
	}

	if applied > 0 {
		day.Total += applied
	}
	if day.Counts == nil {
		day.Counts = map[Action]int{}
	}
	day.Counts[action]++
	if err := e.counters.Update(ctx, userID, dateKey, day); err != nil {
		return Result{}, fmt.Errorf("update day counters: %w", err)
	}

	entry := LogEntry{Action: action, Delta: applied, Note: meta.Note, CreatedAt: now}
	if err := e.logs.Append(ctx, userID, entry); err != nil {
		return Result{}, fmt.Errorf("append xp log: %w", err)
	}

	if badges := BadgesFor(newXP); !sameBadges(badges, state.Badges) {
		if err := e.profiles.Update(ctx, userID, ProfileUpdate{Badges: badges}); err != nil {
			return Result{}, fmt.Errorf("update badges: %w", err)
		}
	}

	leveledUp := newLevel > state.Level
	if leveledUp && e.notifier != nil {
		target := meta.NotifyTarget
		if target == 0 {
			target = userID
		}
		e.notifier.NotifyLevelUp(ctx, target, newLevel)
	}

	e.logger.Info("xp awarded",
		zap.Uint("user_id", userID),
		zap.String("action", string(action)),
		zap.Int("delta", applied),
		zap.Int("xp", newXP),
		zap.Int("level", newLevel),
		zap.Bool("leveled_up", leveledUp),
	)

	return Result{Outcome: Applied, Delta: applied, XP: newXP, Level: newLevel, LeveledUp: leveledUp}, nil
}

// rejected reports a business-rule no-op: no delta, no log entry, no
// counter change.
func (e *Engine) rejected(o Outcome, state *GamificationState, userID uint, action Action) (Result, error) {
	e.logger.Debug("xp award rejected",
		zap.Uint("user_id", userID),
		zap.String("action", string(action)),
		zap.String("outcome", o.String()),
	)
	return Result{Outcome: o, XP: state.XP, Level: state.Level}, nil
}

// applyPendingDecay subtracts the inactivity penalty when the user has
// been idle past the decay window and no decay ran inside the window.
// Decay is detected lazily here, on the next interaction, not by a
// background schedule.
func (e *Engine) applyPendingDecay(ctx context.Context, userID uint, state *GamificationState, now time.Time) error {
	idle := state.LastActivityAt == nil || now.Sub(*state.LastActivityAt) > DecayInactivity
	due := state.LastDecayAppliedAt == nil || now.Sub(*state.LastDecayAppliedAt) > DecayInterval
	if !idle || !due {
		return nil
	}

	newXP := state.XP - DecayAmount
	if newXP < 0 {
		newXP = 0
	}
	applied := newXP - state.XP
	newLevel := ComputeLevel(newXP)

	update := ProfileUpdate{XP: &newXP, Level: &newLevel, LastDecayAppliedAt: &now}
	if badges := BadgesFor(newXP); !sameBadges(badges, state.Badges) {
		update.Badges = badges
		state.Badges = badges
	}
	if err := e.profiles.Update(ctx, userID, update); err != nil {
		return fmt.Errorf("apply decay: %w", err)
	}

	entry := LogEntry{Action: ActionInactivityDecay, Delta: applied, Note: "inactivity decay", CreatedAt: now}
	if err := e.logs.Append(ctx, userID, entry); err != nil {
		return fmt.Errorf("log decay: %w", err)
	}

	state.XP = newXP
	state.Level = newLevel
	state.LastDecayAppliedAt = &now

	e.logger.Info("inactivity decay applied",
		zap.Uint("user_id", userID),
		zap.Int("delta", applied),
		zap.Int("xp", newXP),
	)
	return nil
}

// advanceLoginStreak updates the consecutive-day login streak and
// returns the bonus XP. The streak fields persist even when the award
// itself is later suppressed by the daily cap. A repeated login on the
// same UTC day leaves the streak untouched; the per-day limit rejects
// the duplicate award afterwards.
func (e *Engine) advanceLoginStreak(ctx context.Context, userID uint, state *GamificationState, now time.Time) (int, error) {
	if state.LastLoginAt != nil && sameUTCDay(*state.LastLoginAt, now) {
		return StreakBonus(state.LoginStreak), nil
	}

	streak := 1
	if state.LastLoginAt != nil && isPreviousUTCDay(*state.LastLoginAt, now) {
		streak = state.LoginStreak + 1
	}

	update := ProfileUpdate{LoginStreak: &streak, LastLoginAt: &now}
	if err := e.profiles.Update(ctx, userID, update); err != nil {
		return 0, fmt.Errorf("update login streak: %w", err)
	}
	state.LoginStreak = streak
	state.LastLoginAt = &now

	return StreakBonus(streak), nil
}

func sameBadges(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameUTCDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func isPreviousUTCDay(last, now time.Time) bool {
	yesterday := now.UTC().AddDate(0, 0, -1)
	return sameUTCDay(last, yesterday)
}
