package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/glizzus/action-timer/internal/deadline"
	"github.com/glizzus/action-timer/internal/notify"
	"github.com/glizzus/action-timer/internal/repository"
	"github.com/glizzus/action-timer/internal/schedule"
	"github.com/glizzus/action-timer/internal/service"
)

var now = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

type fakeScheduler struct {
	armed    []int64
	canceled []int64
	armErr   error
}

func (f *fakeScheduler) Arm(action repository.Action) (bool, error) {
	if f.armErr != nil {
		return false, f.armErr
	}
	f.armed = append(f.armed, action.ID)
	return true, nil
}

func (f *fakeScheduler) Cancel(id int64) bool {
	f.canceled = append(f.canceled, id)
	return true
}

func scoutRequest() service.StartRequest {
	return service.StartRequest{
		ActionType:         "Scout",
		Target:             "BaseX",
		DurationOrDeadline: "45m",
		GuildID:            "guild-1",
		UserID:             "user-1",
		DefaultChannelID:   "channel-default",
	}
}

func TestStartListCancel(t *testing.T) {
	store := repository.NewMemoryActionRepository()
	scheduler := &fakeScheduler{}
	svc := service.NewActionService(store, scheduler, service.WithClock(fixedClock))

	started, err := svc.StartAction(t.Context(), scoutRequest())
	if err != nil {
		t.Fatalf("StartAction() error: %v", err)
	}
	wantStarted := service.StartResult{
		ID:         started.ID,
		ActionType: "Scout",
		Target:     "BaseX",
		EndsAt:     now.Add(45 * time.Minute),
		ChannelID:  "channel-default",
	}
	if diff := cmp.Diff(wantStarted, started); diff != "" {
		t.Errorf("StartAction() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{started.ID}, scheduler.armed); diff != "" {
		t.Errorf("armed ids mismatch (-want +got):\n%s", diff)
	}

	pending, err := svc.ListPending(t.Context(), "guild-1", "user-1")
	if err != nil {
		t.Fatalf("ListPending() error: %v", err)
	}
	wantPending := []service.PendingAction{
		{
			ID:         started.ID,
			ActionType: "Scout",
			Target:     "BaseX",
			EndsAt:     now.Add(45 * time.Minute),
			ChannelID:  "channel-default",
		},
	}
	if diff := cmp.Diff(wantPending, pending); diff != "" {
		t.Errorf("ListPending() mismatch (-want +got):\n%s", diff)
	}

	ok, err := svc.CancelAction(t.Context(), started.ID, "guild-1", "user-1")
	if err != nil || !ok {
		t.Fatalf("CancelAction() = %v, %v; want true, nil", ok, err)
	}
	if diff := cmp.Diff([]int64{started.ID}, scheduler.canceled); diff != "" {
		t.Errorf("canceled ids mismatch (-want +got):\n%s", diff)
	}

	pending, err = svc.ListPending(t.Context(), "guild-1", "user-1")
	if err != nil {
		t.Fatalf("ListPending() error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("ListPending() after cancel = %v; want empty", pending)
	}

	ok, err = svc.CancelAction(t.Context(), started.ID, "guild-1", "user-1")
	if err != nil || ok {
		t.Errorf("second CancelAction() = %v, %v; want false, nil", ok, err)
	}
}

func TestStartActionExplicitChannelAndNote(t *testing.T) {
	store := repository.NewMemoryActionRepository()
	svc := service.NewActionService(store, &fakeScheduler{}, service.WithClock(fixedClock))

	req := scoutRequest()
	req.ChannelID = "channel-raids"
	req.Note = "  bring tanks  "
	req.DurationOrDeadline = "2025-10-22 23:40"

	started, err := svc.StartAction(t.Context(), req)
	if err != nil {
		t.Fatalf("StartAction() error: %v", err)
	}
	if started.ChannelID != "channel-raids" {
		t.Errorf("ChannelID = %q; want %q", started.ChannelID, "channel-raids")
	}
	if started.Note != "bring tanks" {
		t.Errorf("Note = %q; want %q", started.Note, "bring tanks")
	}
	if want := time.Date(2025, 10, 22, 23, 40, 0, 0, time.UTC); !started.EndsAt.Equal(want) {
		t.Errorf("EndsAt = %v; want %v", started.EndsAt, want)
	}

	stored, err := store.Get(t.Context(), started.ID)
	if err != nil {
		t.Fatalf("failed to get action: %v", err)
	}
	if stored.Note != "bring tanks" || stored.CreatedAt != now {
		t.Errorf("stored action = %+v; want trimmed note and CreatedAt %v", stored, now)
	}
}

func TestStartActionRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*service.StartRequest)
		check  func(error) bool
	}{
		{
			name:   "blank action type",
			modify: func(r *service.StartRequest) { r.ActionType = "  " },
			check:  isInvalidRequest,
		},
		{
			name:   "blank target",
			modify: func(r *service.StartRequest) { r.Target = "" },
			check:  isInvalidRequest,
		},
		{
			name: "no channel",
			modify: func(r *service.StartRequest) {
				r.ChannelID = ""
				r.DefaultChannelID = ""
			},
			check: isInvalidRequest,
		},
		{
			name:   "bad duration",
			modify: func(r *service.StartRequest) { r.DurationOrDeadline = "soon" },
			check:  func(err error) bool { return errors.Is(err, deadline.ErrInvalidDeadline) },
		},
		{
			name:   "zero duration",
			modify: func(r *service.StartRequest) { r.DurationOrDeadline = "0m" },
			check:  func(err error) bool { return errors.Is(err, deadline.ErrInvalidDeadline) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := repository.NewMemoryActionRepository()
			scheduler := &fakeScheduler{}
			svc := service.NewActionService(store, scheduler, service.WithClock(fixedClock))

			req := scoutRequest()
			tc.modify(&req)
			_, err := svc.StartAction(t.Context(), req)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !tc.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}

			if len(scheduler.armed) != 0 {
				t.Errorf("armed %v for a rejected request", scheduler.armed)
			}
			pending, _ := store.Pending(t.Context())
			if len(pending) != 0 {
				t.Errorf("stored %d actions for a rejected request", len(pending))
			}
		})
	}
}

func isInvalidRequest(err error) bool {
	var invalid *service.InvalidRequestError
	return errors.As(err, &invalid)
}

func TestStartActionArmFailureKeepsAction(t *testing.T) {
	store := repository.NewMemoryActionRepository()
	scheduler := &fakeScheduler{armErr: schedule.ErrEngineClosed}
	svc := service.NewActionService(store, scheduler, service.WithClock(fixedClock))

	started, err := svc.StartAction(t.Context(), scoutRequest())
	if err != nil {
		t.Fatalf("StartAction() error: %v", err)
	}
	if _, err := store.Get(t.Context(), started.ID); err != nil {
		t.Errorf("action %d was not stored: %v", started.ID, err)
	}
}

func TestCancelActionForeignOwner(t *testing.T) {
	store := repository.NewMemoryActionRepository()
	scheduler := &fakeScheduler{}
	svc := service.NewActionService(store, scheduler, service.WithClock(fixedClock))

	started, err := svc.StartAction(t.Context(), scoutRequest())
	if err != nil {
		t.Fatalf("StartAction() error: %v", err)
	}

	ok, err := svc.CancelAction(t.Context(), started.ID, "guild-1", "user-2")
	if err != nil || ok {
		t.Errorf("CancelAction() by another user = %v, %v; want false, nil", ok, err)
	}
	if len(scheduler.canceled) != 0 {
		t.Errorf("engine timers canceled for a refused cancel: %v", scheduler.canceled)
	}
}

func TestStartedActionFiresThroughEngine(t *testing.T) {
	store := repository.NewMemoryActionRepository()
	sent := make(chan notify.Notification, 1)
	notifier := notify.NotifierFunc(func(ctx context.Context, n notify.Notification) error {
		sent <- n
		return nil
	})
	engine := schedule.NewEngine(store, notifier,
		schedule.WithClock(fixedClock),
		schedule.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	defer engine.Close()
	svc := service.NewActionService(store, engine, service.WithClock(fixedClock))

	req := scoutRequest()
	req.DurationOrDeadline = "2001-01-01 00:00"
	started, err := svc.StartAction(t.Context(), req)
	if err != nil {
		t.Fatalf("StartAction() error: %v", err)
	}

	select {
	case n := <-sent:
		if n.ActionID != started.ID {
			t.Errorf("notified action %d; want %d", n.ActionID, started.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("past deadline did not fire")
	}

	pending, err := svc.ListPending(t.Context(), "guild-1", "user-1")
	if err != nil {
		t.Fatalf("ListPending() error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("ListPending() after firing = %v; want empty", pending)
	}
}
