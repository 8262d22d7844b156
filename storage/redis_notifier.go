package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LevelUpChannel is the Redis pub/sub channel carrying level-up events
// for the notification dispatcher.
const LevelUpChannel = "xp:levelup"

// LevelUpEvent is the published payload.
type LevelUpEvent struct {
	EventID    string    `json:"event_id"`
	UserID     uint      `json:"user_id"`
	NewLevel   int       `json:"new_level"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RedisNotifier publishes level-up events to Redis. Delivery is
// fire-and-forget: failures are logged, never surfaced to the award
// path.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewRedisNotifier wraps a Redis client. logger may be nil.
func NewRedisNotifier(client *redis.Client, logger *zap.SugaredLogger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RedisNotifier{client: client, logger: logger}
}

// NotifyLevelUp publishes one event for the user's new level.
func (n *RedisNotifier) NotifyLevelUp(ctx context.Context, userID uint, newLevel int) {
	if n.client == nil {
		return
	}

	event := LevelUpEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		NewLevel:   newLevel,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warnf("marshal level-up event user=%d: %v", userID, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := n.client.Publish(pubCtx, LevelUpChannel, payload).Err(); err != nil {
		n.logger.Warnf("publish level-up user=%d level=%d: %v", userID, newLevel, err)
	}
}
