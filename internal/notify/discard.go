package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glizzus/action-timer/internal/config"
)

// DiscardRecorder counts completion messages that could not be delivered.
type DiscardRecorder interface {
	RecordDiscard(ctx context.Context, n Notification, cause error) error
	Discards(ctx context.Context) (int64, error)
}

const (
	discardCountKey = "action_notify_discards"
	lastDiscardKey  = "action_notify_last_discard"
)

type RedisDiscardCounter struct {
	client *redis.Client
}

func NewRedisDiscardCounter(client *redis.Client) *RedisDiscardCounter {
	return &RedisDiscardCounter{client: client}
}

func (c *RedisDiscardCounter) RecordDiscard(ctx context.Context, n Notification, cause error) error {
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, discardCountKey)
		pipe.HSet(ctx, lastDiscardKey, map[string]any{
			"actionID":  n.ActionID,
			"channelID": n.ChannelID,
			"error":     fmt.Sprint(cause),
			"at":        time.Now().UTC().Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record discarded notification for action %d: %w", n.ActionID, err)
	}
	return nil
}

func (c *RedisDiscardCounter) Discards(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, discardCountKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read discard count: %w", err)
	}
	return n, nil
}

var _ DiscardRecorder = (*RedisDiscardCounter)(nil)

type MemoryDiscardCounter struct {
	count atomic.Int64
}

func NewMemoryDiscardCounter() *MemoryDiscardCounter {
	return &MemoryDiscardCounter{}
}

func (c *MemoryDiscardCounter) RecordDiscard(ctx context.Context, n Notification, cause error) error {
	c.count.Add(1)
	return nil
}

func (c *MemoryDiscardCounter) Discards(ctx context.Context) (int64, error) {
	return c.count.Load(), nil
}

var _ DiscardRecorder = (*MemoryDiscardCounter)(nil)

// NewDiscardRecorder counts discards in Redis when it is configured and in
// memory otherwise. The returned function releases the Redis client.
func NewDiscardRecorder(ctx context.Context, cfg *config.RedisConfig) (DiscardRecorder, func() error, error) {
	if !cfg.Enabled() {
		return NewMemoryDiscardCounter(), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisDiscardCounter(client), client.Close, nil
}
