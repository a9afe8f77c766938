package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timestampLayout is fixed width and always rendered in UTC ("+00:00"),
// so lexical ORDER BY on the TEXT column is chronological.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

type SQLiteActionRepository struct {
	db *sql.DB
}

func NewSQLiteActionRepository(db *sql.DB) *SQLiteActionRepository {
	return &SQLiteActionRepository{db: db}
}

const sqliteActionColumns = `id, guild_id, user_id, channel_id, action_type, target, note, created_at, ends_at, done`

func scanSQLiteAction(row rowScanner) (Action, error) {
	var (
		action    Action
		note      sql.NullString
		createdAt string
		endsAt    string
	)
	err := row.Scan(
		&action.ID,
		&action.GuildID,
		&action.UserID,
		&action.ChannelID,
		&action.ActionType,
		&action.Target,
		&note,
		&createdAt,
		&endsAt,
		&action.Done,
	)
	if err != nil {
		return Action{}, err
	}
	action.Note = note.String

	if action.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Action{}, fmt.Errorf("invalid created_at for action %d: %w", action.ID, err)
	}
	if action.EndsAt, err = parseTimestamp(endsAt); err != nil {
		return Action{}, fmt.Errorf("invalid ends_at for action %d: %w", action.ID, err)
	}
	return action, nil
}

func (r *SQLiteActionRepository) queryActions(ctx context.Context, query string, args ...any) (actions []Action, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	for rows.Next() {
		action, err := scanSQLiteAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func (r *SQLiteActionRepository) Create(ctx context.Context, action NewAction) (int64, error) {
	const query = `
	INSERT INTO actions (guild_id, user_id, channel_id, action_type, target, note, created_at, ends_at, done)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`

	res, err := r.db.ExecContext(ctx, query,
		action.GuildID,
		action.UserID,
		action.ChannelID,
		action.ActionType,
		action.Target,
		nullableNote(action.Note),
		formatTimestamp(action.CreatedAt),
		formatTimestamp(action.EndsAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert action: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted action id: %w", err)
	}
	return id, nil
}

func (r *SQLiteActionRepository) Get(ctx context.Context, id int64) (Action, error) {
	query := `SELECT ` + sqliteActionColumns + ` FROM actions WHERE id = ?`

	action, err := scanSQLiteAction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Action{}, ErrActionNotFound
	}
	if err != nil {
		return Action{}, fmt.Errorf("failed to get action %d: %w", id, err)
	}
	return action, nil
}

func (r *SQLiteActionRepository) Pending(ctx context.Context) ([]Action, error) {
	query := `SELECT ` + sqliteActionColumns + ` FROM actions WHERE done = 0 ORDER BY id`

	actions, err := r.queryActions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending actions: %w", err)
	}
	return actions, nil
}

func (r *SQLiteActionRepository) PendingFor(ctx context.Context, guildID, userID string) ([]Action, error) {
	query := `
	SELECT ` + sqliteActionColumns + `
	FROM actions
	WHERE guild_id = ? AND user_id = ? AND done = 0
	ORDER BY ends_at ASC, id ASC
	`

	actions, err := r.queryActions(ctx, query, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending actions for user: %w", err)
	}
	return actions, nil
}

func (r *SQLiteActionRepository) TryComplete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE actions SET done = 1 WHERE id = ? AND done = 0`, id)
	if err != nil {
		return false, fmt.Errorf("failed to complete action %d: %w", id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteActionRepository) Cancel(ctx context.Context, id int64, guildID, userID string) (bool, error) {
	const query = `
	UPDATE actions SET done = 1
	WHERE id = ? AND guild_id = ? AND user_id = ? AND done = 0
	`

	res, err := r.db.ExecContext(ctx, query, id, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel action %d: %w", id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteActionRepository) History(ctx context.Context, guildID string) ([]Action, error) {
	query := `SELECT ` + sqliteActionColumns + ` FROM actions WHERE guild_id = ? ORDER BY id`

	actions, err := r.queryActions(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query action history: %w", err)
	}
	return actions, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

var _ ActionStore = (*SQLiteActionRepository)(nil)
