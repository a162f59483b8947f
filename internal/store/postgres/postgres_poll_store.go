package postgres

import (
	"context"
	"database/sql"
	"errors"

	"guildwarden/internal/models"
)

type PostgresPollStore struct {
	db *sql.DB
}

func NewPostgresPollStore(db *sql.DB) *PostgresPollStore {
	return &PostgresPollStore{db: db}
}

func (r *PostgresPollStore) Insert(ctx context.Context, rec models.PollRecord) error {
	query := `
		INSERT INTO guildwarden_schema.polls (question, message_ref, channel_ref, expires_at, created_at)
		VALUES ($1, $2, $3, $4, now())
	`
	_, err := r.db.ExecContext(ctx, query, rec.Question, rec.MessageRef, rec.ChannelRef, rec.ExpiresAt)
	return err
}

func (r *PostgresPollStore) Find(ctx context.Context, question string) (*models.PollRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT question, message_ref, channel_ref, expires_at, created_at
		FROM guildwarden_schema.polls
		WHERE question = $1
	`, question)

	return scanPoll(row)
}

func (r *PostgresPollStore) Remove(ctx context.Context, question string) (*models.PollRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM guildwarden_schema.polls
		WHERE question = $1
		RETURNING question, message_ref, channel_ref, expires_at, created_at
	`, question)

	return scanPoll(row)
}

func (r *PostgresPollStore) All(ctx context.Context) ([]models.PollRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT question, message_ref, channel_ref, expires_at, created_at
		FROM guildwarden_schema.polls
		ORDER BY expires_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.PollRecord
	for rows.Next() {
		var rec models.PollRecord
		if err := rows.Scan(&rec.Question, &rec.MessageRef, &rec.ChannelRef, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (r *PostgresPollStore) Close() error {
	return r.db.Close()
}

func scanPoll(row *sql.Row) (*models.PollRecord, error) {
	var rec models.PollRecord
	err := row.Scan(&rec.Question, &rec.MessageRef, &rec.ChannelRef, &rec.ExpiresAt, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
