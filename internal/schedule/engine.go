package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glizzus/action-timer/internal/generator"
	"github.com/glizzus/action-timer/internal/notify"
	"github.com/glizzus/action-timer/internal/repository"
)

// ErrEngineClosed is returned by Arm after Close.
var ErrEngineClosed = errors.New("timer engine is closed")

const DefaultDeliveryTimeout = 10 * time.Second

// ActionCompleter is the part of the action store a firing timer needs.
type ActionCompleter interface {
	TryComplete(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (repository.Action, error)
}

type timer struct {
	token  string
	handle *Handle
}

// Engine owns one in-memory timer per pending action. The store decides
// whether a firing wins, so a timer that races a cancel is harmless.
type Engine struct {
	store    ActionCompleter
	notifier notify.Notifier

	discards        notify.DiscardRecorder
	tokens          generator.Generator[string]
	now             func() time.Time
	logger          *slog.Logger
	deliveryTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	timers map[int64]timer
	closed bool
}

type EngineOption func(*Engine)

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces time.Now when computing how long a timer waits.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func WithDeliveryTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.deliveryTimeout = timeout
	}
}

func WithDiscardRecorder(discards notify.DiscardRecorder) EngineOption {
	return func(e *Engine) {
		e.discards = discards
	}
}

func WithTokenGenerator(tokens generator.Generator[string]) EngineOption {
	return func(e *Engine) {
		e.tokens = tokens
	}
}

func NewEngine(store ActionCompleter, notifier notify.Notifier, opts ...EngineOption) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:           store,
		notifier:        notifier,
		discards:        notify.NewMemoryDiscardCounter(),
		tokens:          &generator.UUIDV4Generator{},
		now:             time.Now,
		logger:          slog.Default(),
		deliveryTimeout: DefaultDeliveryTimeout,
		ctx:             ctx,
		cancel:          cancel,
		timers:          make(map[int64]timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Arm schedules the action to fire at its EndsAt. It reports false without
// scheduling anything when the action already has a live timer.
func (e *Engine) Arm(action repository.Action) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false, ErrEngineClosed
	}
	if _, ok := e.timers[action.ID]; ok {
		return false, nil
	}

	token, err := e.tokens.Next()
	if err != nil {
		return false, fmt.Errorf("failed to generate timer token for action %d: %w", action.ID, err)
	}

	delay := action.EndsAt.Sub(e.now())
	e.wg.Add(1)
	handle := RunAfter(e.ctx, delay, func(ctx context.Context) {
		e.fire(ctx, action.ID, token)
	})
	e.timers[action.ID] = timer{token: token, handle: handle}

	e.logger.Debug("Armed action timer", "actionID", action.ID, "endsAt", action.EndsAt, "delay", max(delay, 0))
	return true, nil
}

// Cancel stops the action's live timer, if any. The store remains the
// authority; this only avoids a wasted firing.
func (e *Engine) Cancel(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	if !ok {
		return false
	}
	delete(e.timers, id)
	if t.handle.Stop() {
		e.wg.Done()
		return true
	}
	return false
}

// Pending returns the number of live timers.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// Close stops every live timer and waits for firings already in flight.
// Actions left pending are re-armed by Reconcile on the next start.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for id, t := range e.timers {
		if t.handle.Stop() {
			e.wg.Done()
		}
		delete(e.timers, id)
	}
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) unregister(id int64, token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.timers[id]; ok && t.token == token {
		delete(e.timers, id)
	}
}

func (e *Engine) fire(ctx context.Context, id int64, token string) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovered from panic in action timer", "actionID", id, "panic", r)
		}
	}()

	e.unregister(id, token)
	if ctx.Err() != nil {
		return
	}

	won, err := e.store.TryComplete(ctx, id)
	if err != nil {
		e.logger.Error("Failed to complete action; it stays pending until the next start", "actionID", id, "error", err)
		return
	}
	if !won {
		e.logger.Debug("Action already finished", "actionID", id)
		return
	}

	// The action is done now; shutting down must not drop its message.
	ctx = context.WithoutCancel(ctx)

	action, err := e.store.Get(ctx, id)
	if err != nil {
		e.logger.Error("Failed to load completed action", "actionID", id, "error", err)
		return
	}
	n := notificationFor(action)

	deliverCtx, cancel := context.WithTimeout(ctx, e.deliveryTimeout)
	defer cancel()
	if err := e.notifier.Notify(deliverCtx, n); err != nil {
		e.logger.Warn("Failed to deliver completion message; discarding it", "actionID", id, "channelID", n.ChannelID, "error", err)
		if err := e.discards.RecordDiscard(ctx, n, err); err != nil {
			e.logger.Warn("Failed to record discarded completion message", "actionID", id, "error", err)
		}
		return
	}

	e.logger.Info("Action completed", "actionID", id, "channelID", n.ChannelID)
}

func notificationFor(action repository.Action) notify.Notification {
	return notify.Notification{
		ActionID:   action.ID,
		ChannelID:  action.ChannelID,
		UserID:     action.UserID,
		ActionType: action.ActionType,
		Target:     action.Target,
		EndsAt:     action.EndsAt,
		Note:       action.Note,
	}
}
