// Package cache keeps the set of active poll questions close at hand for the
// case-insensitive uniqueness check. The poll store remains the source of
// truth; the cache is reseeded from it during startup reconciliation.
package cache

import "context"

type PollCache interface {
	Add(ctx context.Context, question string) error
	Remove(ctx context.Context, question string) error
	Contains(ctx context.Context, question string) (bool, error)
	Questions(ctx context.Context) ([]string, error)
	Close() error
}
