// Package notify fans committed activity events out to subscribers.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weseeyou/backend/internal/models"
)

// Publisher delivers activity events after they are committed. Delivery is
// best-effort; the activity_events table stays the source of truth.
type Publisher interface {
	Publish(ctx context.Context, events []models.ActivityEvent) error
}

type Nop struct{}

func (Nop) Publish(context.Context, []models.ActivityEvent) error { return nil }

// RedisStream appends each event to a capped Redis stream.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStream(url, stream string) (*RedisStream, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStream{
		client: redis.NewClient(opts),
		stream: stream,
		maxLen: 10000,
	}, nil
}

func (p *RedisStream) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisStream) Publish(ctx context.Context, events []models.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, e := range events {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: true,
			Values: StreamValues(e),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %d events to %s: %w", len(events), p.stream, err)
	}
	return nil
}

func (p *RedisStream) Close() error {
	return p.client.Close()
}

// StreamValues flattens an event into stream entry fields.
func StreamValues(e models.ActivityEvent) map[string]interface{} {
	return map[string]interface{}{
		"id":            strconv.FormatUint(uint64(e.ID), 10),
		"account_id":    e.AccountID.String(),
		"platform":      string(e.Platform),
		"handle":        e.Handle,
		"activity_type": string(e.ActivityType),
		"description":   e.Description,
		"created_at":    e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
