// Package service implements the action timer use cases shared by the
// Discord handler and the development CLI.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glizzus/action-timer/internal/deadline"
	"github.com/glizzus/action-timer/internal/repository"
)

// InvalidRequestError reports a request the user has to fix.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return e.Reason
}

var _ error = (*InvalidRequestError)(nil)

// Scheduler arms and disarms in-memory timers.
type Scheduler interface {
	Arm(action repository.Action) (bool, error)
	Cancel(id int64) bool
}

type StartRequest struct {
	ActionType         string
	Target             string
	DurationOrDeadline string
	// ChannelID is where the completion message goes. Empty means DefaultChannelID.
	ChannelID        string
	Note             string
	GuildID          string
	UserID           string
	DefaultChannelID string
}

type StartResult struct {
	ID         int64
	ActionType string
	Target     string
	Note       string
	EndsAt     time.Time
	ChannelID  string
}

type PendingAction struct {
	ID         int64
	ActionType string
	Target     string
	Note       string
	EndsAt     time.Time
	ChannelID  string
}

type ActionService struct {
	store     repository.ActionStore
	scheduler Scheduler
	now       func() time.Time
}

type Option func(*ActionService)

func WithClock(now func() time.Time) Option {
	return func(s *ActionService) {
		s.now = now
	}
}

func NewActionService(store repository.ActionStore, scheduler Scheduler, opts ...Option) *ActionService {
	s := &ActionService{
		store:     store,
		scheduler: scheduler,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock in UTC.
func (s *ActionService) Now() time.Time {
	return s.now().UTC()
}

// StartAction persists a new action and arms its timer. The timer is armed
// only after the action is stored, so a crash in between is repaired by
// the next reconcile.
func (s *ActionService) StartAction(ctx context.Context, req StartRequest) (StartResult, error) {
	actionType := strings.TrimSpace(req.ActionType)
	if actionType == "" {
		return StartResult{}, &InvalidRequestError{Reason: "Action type is required."}
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return StartResult{}, &InvalidRequestError{Reason: "Target is required."}
	}

	now := s.Now()
	endsAt, err := deadline.Parse(req.DurationOrDeadline, now)
	if err != nil {
		return StartResult{}, err
	}

	channelID := req.ChannelID
	if channelID == "" {
		channelID = req.DefaultChannelID
	}
	if channelID == "" {
		return StartResult{}, &InvalidRequestError{Reason: "A channel to ping is required."}
	}

	newAction := repository.NewAction{
		GuildID:    req.GuildID,
		UserID:     req.UserID,
		ChannelID:  channelID,
		ActionType: actionType,
		Target:     target,
		Note:       strings.TrimSpace(req.Note),
		CreatedAt:  now,
		EndsAt:     endsAt,
	}
	id, err := s.store.Create(ctx, newAction)
	if err != nil {
		return StartResult{}, fmt.Errorf("failed to create action: %w", err)
	}

	action := repository.Action{
		ID:         id,
		GuildID:    newAction.GuildID,
		UserID:     newAction.UserID,
		ChannelID:  newAction.ChannelID,
		ActionType: newAction.ActionType,
		Target:     newAction.Target,
		Note:       newAction.Note,
		CreatedAt:  newAction.CreatedAt,
		EndsAt:     newAction.EndsAt,
	}
	if _, err := s.scheduler.Arm(action); err != nil {
		// The row is durable; the next start re-arms it.
		slog.Error("Failed to arm timer for new action", "actionID", id, "error", err)
	}

	slog.Info("Action started", "actionID", id, "guildID", req.GuildID, "userID", req.UserID, "endsAt", endsAt)
	return StartResult{
		ID:         id,
		ActionType: actionType,
		Target:     target,
		Note:       newAction.Note,
		EndsAt:     endsAt,
		ChannelID:  channelID,
	}, nil
}

// ListPending returns the user's pending actions in a guild, soonest first.
func (s *ActionService) ListPending(ctx context.Context, guildID, userID string) ([]PendingAction, error) {
	actions, err := s.store.PendingFor(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending actions: %w", err)
	}

	pending := make([]PendingAction, 0, len(actions))
	for _, a := range actions {
		pending = append(pending, PendingAction{
			ID:         a.ID,
			ActionType: a.ActionType,
			Target:     a.Target,
			Note:       a.Note,
			EndsAt:     a.EndsAt,
			ChannelID:  a.ChannelID,
		})
	}
	return pending, nil
}

// CancelAction finishes the action without a completion message. It reports
// false when the action does not exist, belongs to someone else, or is
// already done.
func (s *ActionService) CancelAction(ctx context.Context, id int64, guildID, userID string) (bool, error) {
	ok, err := s.store.Cancel(ctx, id, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel action %d: %w", id, err)
	}
	if !ok {
		return false, nil
	}

	s.scheduler.Cancel(id)
	slog.Info("Action canceled", "actionID", id, "guildID", guildID, "userID", userID)
	return true, nil
}
