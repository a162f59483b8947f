package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"guildwarden/internal/models"
)

type PostgresJobStore struct {
	db *sql.DB
}

func NewPostgresJobStore(db *sql.DB) *PostgresJobStore {
	return &PostgresJobStore{db: db}
}

func (r *PostgresJobStore) Insert(ctx context.Context, handler string, fireAt time.Time, args ...any) (int64, error) {
	payloadJSON, err := json.Marshal(args)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO guildwarden_schema.scheduled_jobs (handler, payload, fire_at, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id
	`

	var jobID int64
	err = r.db.QueryRowContext(ctx, query, handler, payloadJSON, fireAt).Scan(&jobID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scheduled job: %w", err)
	}

	return jobID, nil
}

func (r *PostgresJobStore) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM guildwarden_schema.scheduled_jobs
		WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *PostgresJobStore) All(ctx context.Context) ([]models.ScheduledJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, handler, payload, fire_at, created_at
		FROM guildwarden_schema.scheduled_jobs
		ORDER BY fire_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.ScheduledJob
	for rows.Next() {
		var job models.ScheduledJob
		if err := rows.Scan(&job.ID, &job.Handler, &job.Payload, &job.FireAt, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (r *PostgresJobStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM guildwarden_schema.scheduled_jobs
		WHERE fire_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresJobStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM guildwarden_schema.scheduled_jobs
	`).Scan(&count)
	return count, err
}

func (r *PostgresJobStore) Close() error {
	return r.db.Close()
}
