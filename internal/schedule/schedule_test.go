package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/glizzus/action-timer/internal/schedule"
)

func TestRunAtExecutes(t *testing.T) {
	done := make(chan struct{})
	schedule.RunAt(t.Context(), time.Now().Add(10*time.Millisecond), func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("function was not executed")
	}
}

func TestRunAfterNegativeDelayRunsImmediately(t *testing.T) {
	done := make(chan struct{})
	start := time.Now()
	schedule.RunAfter(t.Context(), -5*time.Second, func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("overdue function ran after %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("function was not executed")
	}
}

func TestHandleStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	handle := schedule.RunAfter(t.Context(), 50*time.Millisecond, func(ctx context.Context) {
		ran <- struct{}{}
	})

	if !handle.Stop() {
		t.Fatal("Stop() = false; want true for a pending function")
	}
	if handle.Stop() {
		t.Error("second Stop() = true; want false")
	}

	select {
	case <-ran:
		t.Fatal("stopped function was executed")
	case <-time.After(150 * time.Millisecond):
	}
}
