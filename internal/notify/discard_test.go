package notify_test

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/glizzus/action-timer/internal/config"
	"github.com/glizzus/action-timer/internal/notify"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestDiscardCounters(t *testing.T) {
	_, client := newMiniRedisClient(t)

	counters := []struct {
		name    string
		counter notify.DiscardRecorder
	}{
		{name: "redis", counter: notify.NewRedisDiscardCounter(client)},
		{name: "memory", counter: notify.NewMemoryDiscardCounter()},
	}

	for _, tc := range counters {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.counter.Discards(t.Context())
			if err != nil {
				t.Fatalf("Discards() error: %v", err)
			}
			if got != 0 {
				t.Fatalf("Discards() before any record = %d; want 0", got)
			}

			for range 3 {
				if err := tc.counter.RecordDiscard(t.Context(), notification, errors.New("unknown channel")); err != nil {
					t.Fatalf("RecordDiscard() error: %v", err)
				}
			}

			got, err = tc.counter.Discards(t.Context())
			if err != nil {
				t.Fatalf("Discards() error: %v", err)
			}
			if got != 3 {
				t.Errorf("Discards() = %d; want 3", got)
			}
		})
	}
}

func TestRedisDiscardCounterKeepsLastFailure(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	counter := notify.NewRedisDiscardCounter(client)

	if err := counter.RecordDiscard(t.Context(), notification, errors.New("missing access")); err != nil {
		t.Fatalf("RecordDiscard() error: %v", err)
	}

	if got := mr.HGet("action_notify_last_discard", "actionID"); got != "7" {
		t.Errorf("last discard actionID = %q; want %q", got, "7")
	}
	if got := mr.HGet("action_notify_last_discard", "error"); got != "missing access" {
		t.Errorf("last discard error = %q; want %q", got, "missing access")
	}
}

func TestRedisDiscardCounterUnavailable(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	mr.Close()

	counter := notify.NewRedisDiscardCounter(client)
	if err := counter.RecordDiscard(t.Context(), notification, errors.New("boom")); err == nil {
		t.Error("expected error when redis is unavailable")
	}
}

func TestNewDiscardRecorder(t *testing.T) {
	t.Run("memory without redis", func(t *testing.T) {
		recorder, closer, err := notify.NewDiscardRecorder(t.Context(), &config.RedisConfig{})
		if err != nil {
			t.Fatalf("NewDiscardRecorder() error: %v", err)
		}
		defer closer()
		if _, ok := recorder.(*notify.MemoryDiscardCounter); !ok {
			t.Errorf("recorder is %T; want *MemoryDiscardCounter", recorder)
		}
	})

	t.Run("redis when configured", func(t *testing.T) {
		mr := miniredis.RunT(t)
		recorder, closer, err := notify.NewDiscardRecorder(t.Context(), &config.RedisConfig{Addr: mr.Addr()})
		if err != nil {
			t.Fatalf("NewDiscardRecorder() error: %v", err)
		}
		defer closer()
		if _, ok := recorder.(*notify.RedisDiscardCounter); !ok {
			t.Errorf("recorder is %T; want *RedisDiscardCounter", recorder)
		}
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		if _, _, err := notify.NewDiscardRecorder(t.Context(), &config.RedisConfig{Addr: addr}); err == nil {
			t.Error("expected error for an unreachable redis")
		}
	})
}
