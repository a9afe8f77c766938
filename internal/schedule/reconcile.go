package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glizzus/action-timer/internal/repository"
)

type PendingLister interface {
	Pending(ctx context.Context) ([]repository.Action, error)
}

type Armer interface {
	Arm(action repository.Action) (bool, error)
}

// Reconcile arms a timer for every pending action and returns how many
// were newly armed. Overdue actions fire immediately. Running it again is
// harmless: actions with a live timer are skipped.
func Reconcile(ctx context.Context, store PendingLister, engine Armer) (int, error) {
	actions, err := store.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending actions: %w", err)
	}

	armed := 0
	for _, action := range actions {
		ok, err := engine.Arm(action)
		if err != nil {
			return armed, fmt.Errorf("failed to arm action %d: %w", action.ID, err)
		}
		if ok {
			armed++
		}
	}

	slog.Info("Reconciled pending actions", "pending", len(actions), "armed", armed)
	return armed, nil
}
