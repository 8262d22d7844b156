package engine

import (
	"fmt"
	"time"
)

// Action identifies an XP-earning (or XP-costing) user action.
type Action string

const (
	ActionPostCreated          Action = "POST_CREATED"
	ActionPostLikedReceived    Action = "POST_LIKED_RECEIVED"
	ActionPostUnliked          Action = "POST_UNLIKED"
	ActionCommentCreated       Action = "COMMENT_CREATED"
	ActionCommentReceived      Action = "COMMENT_RECEIVED"
	ActionCommentLikedReceived Action = "COMMENT_LIKED_RECEIVED"
	ActionCommentUnliked       Action = "COMMENT_UNLIKED"
	ActionCollabAccepted       Action = "COLLAB_ACCEPTED"
	ActionCollabSent           Action = "COLLAB_SENT"
	ActionPostReportedValid    Action = "POST_REPORTED_VALID"
	ActionLoginDaily           Action = "LOGIN_DAILY"
	ActionPostShared           Action = "POST_SHARED"
	ActionProfileVerified      Action = "PROFILE_VERIFIED"
)

const (
	// DailyXPCap is the maximum positive XP a user may earn per UTC day.
	DailyXPCap = 2000

	// VerifiedMultiplier scales positive deltas for verified users.
	VerifiedMultiplier = 1.1

	// StreakBonusStep and StreakBonusMax bound the daily-login streak bonus.
	StreakBonusStep = 5
	StreakBonusMax  = 50

	// DecayAmount is subtracted after DecayInactivity without any
	// XP-earning action, at most once per DecayInterval.
	DecayAmount     = 50
	DecayInactivity = 7 * 24 * time.Hour
	DecayInterval   = 7 * 24 * time.Hour

	// AntiSpamRecentMax rejects POST_CREATED awards when the caller
	// reports more recent posts than this.
	AntiSpamRecentMax = 5
)

// baseDelta maps each action to its signed base XP value.
var baseDelta = map[Action]int{
	ActionPostCreated:          20,
	ActionPostLikedReceived:    5,
	ActionPostUnliked:          -5,
	ActionCommentCreated:       10,
	ActionCommentReceived:      8,
	ActionCommentLikedReceived: 3,
	ActionCommentUnliked:       -3,
	ActionCollabAccepted:       25,
	ActionCollabSent:           15,
	ActionPostReportedValid:    -30,
	ActionLoginDaily:           10,
	ActionPostShared:           15,
	ActionProfileVerified:      50,
}

// dailyLimit caps how many times an action may be awarded per user per
// UTC day. Actions absent here are unlimited.
var dailyLimit = map[Action]int{
	ActionPostCreated:          5,
	ActionPostLikedReceived:    100,
	ActionPostUnliked:          100,
	ActionCommentCreated:       20,
	ActionCommentReceived:      50,
	ActionCommentLikedReceived: 200,
	ActionCommentUnliked:       200,
	ActionCollabSent:           10,
	ActionPostShared:           5,
	ActionLoginDaily:           1,
}

// milestone badges by cumulative XP, ascending.
var badgeThresholds = []struct {
	XP   int
	Name string
}{
	{1000, "Rising Creator"},
	{5000, "Top Creator"},
	{10000, "Elite Creator"},
}

// KnownAction reports whether the action exists in the catalog.
func KnownAction(a Action) bool {
	_, ok := baseDelta[a]
	return ok
}

// BaseDelta returns the signed base XP for an action (0 if unknown).
func BaseDelta(a Action) int {
	return baseDelta[a]
}

// DailyLimit returns the per-day award limit for an action and whether
// one is configured.
func DailyLimit(a Action) (int, bool) {
	n, ok := dailyLimit[a]
	return n, ok
}

// ComputeLevel derives the level tier from cumulative XP.
func ComputeLevel(xp int) int {
	switch {
	case xp < 200:
		return 1
	case xp < 500:
		return 2
	case xp < 1000:
		return 3
	case xp < 2000:
		return 4
	case xp < 4000:
		return 5
	default:
		return 6 + (xp-4000)/2000
	}
}

// LevelStart returns the cumulative XP at which a level begins.
func LevelStart(level int) int {
	switch {
	case level <= 1:
		return 0
	case level == 2:
		return 200
	case level == 3:
		return 500
	case level == 4:
		return 1000
	case level == 5:
		return 2000
	default:
		return 4000 + (level-6)*2000
	}
}

// LevelNext returns the cumulative XP required for the next level.
func LevelNext(level int) int {
	return LevelStart(level + 1)
}

// LevelProgress returns the percentage of progress through the current
// level, clamped to [0,100].
func LevelProgress(xp int) int {
	level := ComputeLevel(xp)
	start := LevelStart(level)
	next := LevelNext(level)
	if next <= start {
		return 0
	}
	p := (xp - start) * 100 / (next - start)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// BadgesFor recomputes the full milestone badge set from cumulative XP.
// The set is always rebuilt, never appended to, so decay below a
// threshold drops the badge again.
func BadgesFor(xp int) []string {
	badges := []string{}
	for _, b := range badgeThresholds {
		if xp >= b.XP {
			badges = append(badges, b.Name)
		}
	}
	return badges
}

// StreakBonus returns the LOGIN_DAILY bonus for a consecutive-day
// streak, on top of the base award.
func StreakBonus(streak int) int {
	if streak <= 1 {
		return 0
	}
	bonus := (streak - 1) * StreakBonusStep
	if bonus > StreakBonusMax {
		bonus = StreakBonusMax
	}
	return bonus
}

// DateKey formats a UTC calendar day as a counters-store key.
// The non-zero-padded form ("2024-3-7") matches keys already in
// production storage and must not be changed to the padded form.
func DateKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}
