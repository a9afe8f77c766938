package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryActionRepository keeps actions in process memory.
// It does not survive restarts; use it for tests and dry runs.
type MemoryActionRepository struct {
	mu      sync.Mutex
	nextID  int64
	actions map[int64]Action
}

func NewMemoryActionRepository() *MemoryActionRepository {
	return &MemoryActionRepository{
		actions: make(map[int64]Action),
	}
}

func (r *MemoryActionRepository) Create(ctx context.Context, action NewAction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.actions[r.nextID] = Action{
		ID:         r.nextID,
		GuildID:    action.GuildID,
		UserID:     action.UserID,
		ChannelID:  action.ChannelID,
		ActionType: action.ActionType,
		Target:     action.Target,
		Note:       action.Note,
		CreatedAt:  action.CreatedAt.UTC(),
		EndsAt:     action.EndsAt.UTC(),
	}
	return r.nextID, nil
}

func (r *MemoryActionRepository) Get(ctx context.Context, id int64) (Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok {
		return Action{}, ErrActionNotFound
	}
	return action, nil
}

func (r *MemoryActionRepository) filter(keep func(Action) bool) []Action {
	var out []Action
	for _, action := range r.actions {
		if keep(action) {
			out = append(out, action)
		}
	}
	slices.SortFunc(out, func(a, b Action) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (r *MemoryActionRepository) Pending(ctx context.Context) ([]Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.filter(func(a Action) bool { return !a.Done }), nil
}

func (r *MemoryActionRepository) PendingFor(ctx context.Context, guildID, userID string) ([]Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.filter(func(a Action) bool {
		return !a.Done && a.GuildID == guildID && a.UserID == userID
	})
	slices.SortStableFunc(out, func(a, b Action) int {
		return a.EndsAt.Compare(b.EndsAt)
	})
	return out, nil
}

func (r *MemoryActionRepository) complete(id int64, match func(Action) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || action.Done || !match(action) {
		return false
	}
	action.Done = true
	r.actions[id] = action
	return true
}

func (r *MemoryActionRepository) TryComplete(ctx context.Context, id int64) (bool, error) {
	return r.complete(id, func(Action) bool { return true }), nil
}

func (r *MemoryActionRepository) Cancel(ctx context.Context, id int64, guildID, userID string) (bool, error) {
	return r.complete(id, func(a Action) bool {
		return a.GuildID == guildID && a.UserID == userID
	}), nil
}

func (r *MemoryActionRepository) History(ctx context.Context, guildID string) ([]Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.filter(func(a Action) bool { return a.GuildID == guildID }), nil
}

var _ ActionStore = (*MemoryActionRepository)(nil)
