package store

import (
	"context"

	"guildwarden/internal/models"
)

// MuteStore defines the interface for persisting mute snapshots.
type MuteStore interface {
	// Insert writes a new record. The subject ID is the primary key, so a
	// second insert for an active subject fails.
	Insert(ctx context.Context, rec models.MuteRecord) error

	// Find returns the record for the subject, or nil when none exists.
	Find(ctx context.Context, subjectID string) (*models.MuteRecord, error)

	// Remove deletes the record and returns it, or nil when the subject was
	// not muted. The delete is the atomic claim that resolves the
	// scheduled-vs-manual restore race.
	Remove(ctx context.Context, subjectID string) (*models.MuteRecord, error)

	// All returns every active record.
	All(ctx context.Context) ([]models.MuteRecord, error)

	Close() error
}
