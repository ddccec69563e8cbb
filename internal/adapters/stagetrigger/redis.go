package stagetrigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/riftlight/internal/config"
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/redis/go-redis/v9"
)

// MatchProcessingStream is the stream the statistics-aggregation stage
// consumes from.
const MatchProcessingStream = "riftlight:match-processing"

type RedisStageTrigger struct {
	client *redis.Client
	stream string
}

func NewRedisStageTrigger(client *redis.Client, stream string) *RedisStageTrigger {
	return &RedisStageTrigger{
		client: client,
		stream: stream,
	}
}

func NewRedisClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (r *RedisStageTrigger) Publish(ctx context.Context, payload domain.StageTriggerPayload) error {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"stableId": payload.StableID,
			"matchId":  payload.MatchID,
			"region":   payload.Region,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish stage trigger: %w", err)
	}

	return nil
}

// StubStageTrigger logs instead of publishing, for development runs without
// redis.
type StubStageTrigger struct {
	logger *slog.Logger
}

func (s *StubStageTrigger) Publish(ctx context.Context, payload domain.StageTriggerPayload) error {
	s.logger.InfoContext(ctx, "Would have published stage trigger", "matchId", payload.MatchID, "region", payload.Region)
	return nil
}

func NewStubStageTrigger(logger *slog.Logger) *StubStageTrigger {
	return &StubStageTrigger{logger: logger}
}

func NewRedisStageTriggerOrMock(conf config.Config, logger *slog.Logger) (StageTrigger, error) {
	if conf.RedisAddr() != "" {
		client, err := NewRedisClient(conf.RedisAddr())
		if err != nil {
			if conf.IsDevelopment() {
				logger.Warn("Failed to connect to redis. Falling back to stub trigger.", "error", err.Error())
				return NewStubStageTrigger(logger), nil
			}
			return nil, err
		}
		return NewRedisStageTrigger(client, MatchProcessingStream), nil
	}

	if conf.IsDevelopment() {
		return NewStubStageTrigger(logger), nil
	}

	return nil, fmt.Errorf("missing redis address in non-development environment")
}
