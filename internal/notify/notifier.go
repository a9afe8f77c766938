// Package notify delivers completion messages for finished actions.
//
// Delivery is best effort: callers log and count failures through a
// DiscardRecorder and never retry them.
package notify

import (
	"context"
	"time"
)

// Notification is the content of a completion message.
type Notification struct {
	ActionID   int64
	ChannelID  string
	UserID     string
	ActionType string
	Target     string
	EndsAt     time.Time
	Note       string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

var _ Notifier = NotifierFunc(nil)
