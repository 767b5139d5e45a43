// internal/publisher/publisher.go
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"deposit-service/internal/domain"
)

// DepositEventsChannel is the redis channel and kafka topic for deposit events
const DepositEventsChannel = "deposits.events"

// RedisPublisher publishes deposit events on a redis pub/sub channel
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DepositEventsChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

// PublishDepositCompleted publishes a deposit completed event
func (p *RedisPublisher) PublishDepositCompleted(ctx context.Context, event *domain.DepositCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Published deposit event",
		zap.String("channel", p.channel),
		zap.String("deposit_id", event.DepositID),
		zap.String("user_id", event.UserID))
	return nil
}

// NopPublisher drops events
type NopPublisher struct{}

func (NopPublisher) PublishDepositCompleted(context.Context, *domain.DepositCompletedEvent) error {
	return nil
}
