package repository

import (
	"context"
	"errors"
	"time"
)

// ErrActionNotFound is returned by Get when no action has the requested ID.
var ErrActionNotFound = errors.New("action not found")

// Action is a single user-created timer. Note is empty when the user gave none.
type Action struct {
	ID         int64
	GuildID    string
	UserID     string
	ChannelID  string
	ActionType string
	Target     string
	Note       string
	CreatedAt  time.Time
	EndsAt     time.Time
	Done       bool
}

// NewAction holds the fields of an action before the store assigns its ID.
type NewAction struct {
	GuildID    string
	UserID     string
	ChannelID  string
	ActionType string
	Target     string
	Note       string
	CreatedAt  time.Time
	EndsAt     time.Time
}

// ActionStore persists actions. Done only ever moves from false to true,
// and only through TryComplete or Cancel, which report whether they made
// that transition.
type ActionStore interface {
	Create(ctx context.Context, action NewAction) (int64, error)
	Get(ctx context.Context, id int64) (Action, error)
	// Pending returns every action that is not done.
	Pending(ctx context.Context) ([]Action, error)
	// PendingFor returns the user's actions in a guild that are not done, soonest first.
	PendingFor(ctx context.Context, guildID, userID string) ([]Action, error)
	TryComplete(ctx context.Context, id int64) (bool, error)
	// Cancel completes the action only if it belongs to userID in guildID.
	Cancel(ctx context.Context, id int64, guildID, userID string) (bool, error)
	// History returns every action of a guild, done or not, in creation order.
	History(ctx context.Context, guildID string) ([]Action, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableNote(note string) *string {
	if note == "" {
		return nil
	}
	return &note
}
