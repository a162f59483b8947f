package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var _ DistributedLockManager = (*PostgresDistributedLockManager)(nil)

func TestRelease_WithoutAcquire(t *testing.T) {
	// the held-lock bookkeeping is consulted before any session is touched,
	// so releasing a lock this manager never acquired fails fast
	l := NewPostgresDistributedLockManager(nil)

	err := l.Release(42)
	assert.ErrorContains(t, err, "not held")
}
