package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"guildwarden/internal/models"
)

type PostgresMuteStore struct {
	db *sql.DB
}

func NewPostgresMuteStore(db *sql.DB) *PostgresMuteStore {
	return &PostgresMuteStore{db: db}
}

func (r *PostgresMuteStore) Insert(ctx context.Context, rec models.MuteRecord) error {
	query := `
		INSERT INTO guildwarden_schema.mutes (subject_id, role_snapshot, expires_at, created_at)
		VALUES ($1, $2, $3, now())
	`
	_, err := r.db.ExecContext(ctx, query, rec.SubjectID, pq.Array(rec.RoleSnapshot), rec.ExpiresAt)
	return err
}

func (r *PostgresMuteStore) Find(ctx context.Context, subjectID string) (*models.MuteRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT subject_id, role_snapshot, expires_at, created_at
		FROM guildwarden_schema.mutes
		WHERE subject_id = $1
	`, subjectID)

	return scanMute(row)
}

func (r *PostgresMuteStore) Remove(ctx context.Context, subjectID string) (*models.MuteRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM guildwarden_schema.mutes
		WHERE subject_id = $1
		RETURNING subject_id, role_snapshot, expires_at, created_at
	`, subjectID)

	return scanMute(row)
}

func (r *PostgresMuteStore) All(ctx context.Context) ([]models.MuteRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subject_id, role_snapshot, expires_at, created_at
		FROM guildwarden_schema.mutes
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.MuteRecord
	for rows.Next() {
		var rec models.MuteRecord
		if err := rows.Scan(&rec.SubjectID, pq.Array(&rec.RoleSnapshot), &rec.ExpiresAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (r *PostgresMuteStore) Close() error {
	return r.db.Close()
}

func scanMute(row *sql.Row) (*models.MuteRecord, error) {
	var rec models.MuteRecord
	err := row.Scan(&rec.SubjectID, pq.Array(&rec.RoleSnapshot), &rec.ExpiresAt, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
