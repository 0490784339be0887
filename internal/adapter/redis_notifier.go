package adapter

import (
	"context"
	"encoding/json"
	"time"

	"quizquest/internal/cache"
	"quizquest/internal/domain"
	"quizquest/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// notificationEnvelope is the wire form pushed onto the outbound queue.
type notificationEnvelope struct {
	UserID     string                 `json:"user_id"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Kind       string                 `json:"kind"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	EnqueuedAt time.Time              `json:"enqueued_at"`
}

// RedisNotificationSink implements domain.NotificationSink by pushing events
// onto a redis list consumed by the delivery workers (push/email/bot). The
// queue decouples delivery from the write path: enqueue failures are logged
// and swallowed so they can never fail a submit or an evaluation.
type RedisNotificationSink struct {
	client *redis.Client
}

// NewRedisNotificationSink creates a queue-backed notification sink.
func NewRedisNotificationSink(client *redis.Client) domain.NotificationSink {
	return &RedisNotificationSink{client: client}
}

// Notify enqueues one notification. The returned error is always nil; the
// sink is fire-and-forget by contract.
func (s *RedisNotificationSink) Notify(ctx context.Context, userID string, n domain.Notification) error {
	envelope := notificationEnvelope{
		UserID:     userID,
		Title:      n.Title,
		Message:    n.Message,
		Kind:       n.Kind,
		Payload:    n.Payload,
		EnqueuedAt: time.Now(),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		logger.Get().Error("Failed to marshal notification",
			zap.String("user_id", userID),
			zap.String("kind", n.Kind),
			zap.Error(err))
		return nil
	}

	if err := s.client.LPush(ctx, cache.NotificationQueueKey, string(data)).Err(); err != nil {
		logger.Get().Error("Failed to enqueue notification",
			zap.String("user_id", userID),
			zap.String("kind", n.Kind),
			zap.Error(err))
		return nil
	}

	logger.Get().Debug("Notification enqueued",
		zap.String("user_id", userID),
		zap.String("kind", n.Kind))
	return nil
}
