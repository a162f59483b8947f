package store

import (
	"context"
	"time"

	"guildwarden/internal/models"
)

// JobStore defines the interface for persisting scheduled jobs.
type JobStore interface {
	// Insert persists a one-shot job and returns its ID.
	Insert(ctx context.Context, handler string, fireAt time.Time, args ...any) (int64, error)

	// Remove deletes a job by ID. Returns false when the row was already
	// gone, which the scheduler uses as the at-most-once firing claim.
	Remove(ctx context.Context, id int64) (bool, error)

	// All returns every pending job, ordered by fire time. Used to rebuild
	// the in-memory timer state at startup.
	All(ctx context.Context) ([]models.ScheduledJob, error)

	// PurgeOlderThan deletes jobs whose fire time is before the cutoff.
	// Housekeeping only; a job this stale has lost its handler.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountPending returns the number of persisted jobs.
	CountPending(ctx context.Context) (int, error)

	// Close closes the database
	Close() error
}
