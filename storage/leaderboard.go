package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const leaderboardKey = "xp:leaderboard"

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	UserID uint `json:"user_id"`
	XP     int  `json:"xp"`
}

// Leaderboard mirrors user XP totals into a Redis sorted set. The
// relational store stays authoritative; the mirror is best-effort and
// a Redis outage never fails an award.
type Leaderboard struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewLeaderboard wraps a Redis client. logger may be nil.
func NewLeaderboard(client *redis.Client, logger *zap.SugaredLogger) *Leaderboard {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Leaderboard{client: client, logger: logger}
}

// Set records a user's current XP total.
func (l *Leaderboard) Set(ctx context.Context, userID uint, xp int) {
	if l.client == nil {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	member := strconv.FormatUint(uint64(userID), 10)
	if err := l.client.ZAdd(opCtx, leaderboardKey, redis.Z{Score: float64(xp), Member: member}).Err(); err != nil {
		l.logger.Warnf("leaderboard set user=%d: %v", userID, err)
	}
}

// Top returns the n highest-XP users, best first.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if l.client == nil {
		return []LeaderboardEntry{}, nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	rows, err := l.client.ZRevRangeWithScores(opCtx, leaderboardKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		member, ok := row.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{UserID: uint(id), XP: int(row.Score)})
	}
	return entries, nil
}
