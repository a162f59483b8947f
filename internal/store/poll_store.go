package store

import (
	"context"

	"guildwarden/internal/models"
)

// PollStore defines the interface for persisting active polls, keyed by the
// lowercased question.
type PollStore interface {
	Insert(ctx context.Context, rec models.PollRecord) error

	// Find returns the record for the question, or nil when none is active.
	Find(ctx context.Context, question string) (*models.PollRecord, error)

	// Remove deletes the record and returns it, or nil when no poll with
	// that question was active. Finalization claims the record this way so
	// duplicate triggers observe the no-op branch.
	Remove(ctx context.Context, question string) (*models.PollRecord, error)

	// All returns every active record, for startup reconciliation.
	All(ctx context.Context) ([]models.PollRecord, error)

	Close() error
}
