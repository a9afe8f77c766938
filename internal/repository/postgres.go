package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresActionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresActionRepository(db *pgxpool.Pool) *PostgresActionRepository {
	return &PostgresActionRepository{db: db}
}

const postgresActionColumns = `id, guild_id, user_id, channel_id, action_type, target, note, created_at, ends_at, done`

func NewActionToRowParams(action NewAction) []any {
	return []any{
		action.GuildID,
		action.UserID,
		action.ChannelID,
		action.ActionType,
		action.Target,
		nullableNote(action.Note),
		action.CreatedAt.UTC(),
		action.EndsAt.UTC(),
	}
}

func scanPostgresAction(row rowScanner) (Action, error) {
	var action Action
	var note *string
	err := row.Scan(
		&action.ID,
		&action.GuildID,
		&action.UserID,
		&action.ChannelID,
		&action.ActionType,
		&action.Target,
		&note,
		&action.CreatedAt,
		&action.EndsAt,
		&action.Done,
	)
	if err != nil {
		return Action{}, err
	}
	if note != nil {
		action.Note = *note
	}
	action.CreatedAt = action.CreatedAt.UTC()
	action.EndsAt = action.EndsAt.UTC()
	return action, nil
}

func collectPostgresActions(rows pgx.Rows) ([]Action, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Action, error) {
		return scanPostgresAction(row)
	})
}

func (r *PostgresActionRepository) Create(ctx context.Context, action NewAction) (int64, error) {
	const query = `
	INSERT INTO actions (guild_id, user_id, channel_id, action_type, target, note, created_at, ends_at, done)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
	RETURNING id
	`

	var id int64
	if err := r.db.QueryRow(ctx, query, NewActionToRowParams(action)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert action: %w", err)
	}
	return id, nil
}

func (r *PostgresActionRepository) Get(ctx context.Context, id int64) (Action, error) {
	query := `SELECT ` + postgresActionColumns + ` FROM actions WHERE id = $1`

	action, err := scanPostgresAction(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Action{}, ErrActionNotFound
	}
	if err != nil {
		return Action{}, fmt.Errorf("failed to get action %d: %w", id, err)
	}
	return action, nil
}

func (r *PostgresActionRepository) Pending(ctx context.Context) ([]Action, error) {
	query := `SELECT ` + postgresActionColumns + ` FROM actions WHERE done = FALSE ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending actions: %w", err)
	}
	actions, err := collectPostgresActions(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending actions: %w", err)
	}
	return actions, nil
}

func (r *PostgresActionRepository) PendingFor(ctx context.Context, guildID, userID string) ([]Action, error) {
	query := `
	SELECT ` + postgresActionColumns + `
	FROM actions
	WHERE guild_id = $1 AND user_id = $2 AND done = FALSE
	ORDER BY ends_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending actions for user: %w", err)
	}
	actions, err := collectPostgresActions(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending actions for user: %w", err)
	}
	return actions, nil
}

func (r *PostgresActionRepository) TryComplete(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE actions SET done = TRUE WHERE id = $1 AND done = FALSE`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to complete action %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresActionRepository) Cancel(ctx context.Context, id int64, guildID, userID string) (bool, error) {
	const query = `
	UPDATE actions SET done = TRUE
	WHERE id = $1 AND guild_id = $2 AND user_id = $3 AND done = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel action %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresActionRepository) History(ctx context.Context, guildID string) ([]Action, error) {
	query := `SELECT ` + postgresActionColumns + ` FROM actions WHERE guild_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query action history: %w", err)
	}
	actions, err := collectPostgresActions(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan action history: %w", err)
	}
	return actions, nil
}

var _ ActionStore = (*PostgresActionRepository)(nil)
