// Package archive exports a guild's action history to blob storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glizzus/action-timer/internal/datalayer"
	"github.com/glizzus/action-timer/internal/repository"
)

type HistoryLister interface {
	History(ctx context.Context, guildID string) ([]repository.Action, error)
}

// Record is the exported form of an action.
type Record struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	ChannelID  string    `json:"channel_id"`
	ActionType string    `json:"action_type"`
	Target     string    `json:"target"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	EndsAt     time.Time `json:"ends_at"`
	Done       bool      `json:"done"`
}

type Export struct {
	GuildID    string    `json:"guild_id"`
	ExportedAt time.Time `json:"exported_at"`
	Actions    []Record  `json:"actions"`
}

type Exporter struct {
	store   HistoryLister
	storage datalayer.BlobStorage
	now     func() time.Time
}

func NewExporter(store HistoryLister, storage datalayer.BlobStorage) *Exporter {
	return &Exporter{
		store:   store,
		storage: storage,
		now:     time.Now,
	}
}

// Key is the object key of an export taken at the given time.
func Key(guildID string, at time.Time) string {
	return fmt.Sprintf("guilds/%s/actions-%s.json", guildID, at.UTC().Format("20060102T150405Z"))
}

// Export writes every action of the guild, done or not, as one JSON object
// and returns its key.
func (e *Exporter) Export(ctx context.Context, guildID string) (string, int, error) {
	actions, err := e.store.History(ctx, guildID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load history for guild %s: %w", guildID, err)
	}

	exportedAt := e.now().UTC()
	export := Export{
		GuildID:    guildID,
		ExportedAt: exportedAt,
		Actions:    make([]Record, 0, len(actions)),
	}
	for _, a := range actions {
		export.Actions = append(export.Actions, Record{
			ID:         a.ID,
			UserID:     a.UserID,
			ChannelID:  a.ChannelID,
			ActionType: a.ActionType,
			Target:     a.Target,
			Note:       a.Note,
			CreatedAt:  a.CreatedAt,
			EndsAt:     a.EndsAt,
			Done:       a.Done,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode history for guild %s: %w", guildID, err)
	}

	key := Key(guildID, exportedAt)
	err = e.storage.Put(ctx, key, bytes.NewReader(data), datalayer.PutOptions{
		Size:        int64(len(data)),
		ContentType: "application/json",
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to store history for guild %s: %w", guildID, err)
	}
	return key, len(actions), nil
}
