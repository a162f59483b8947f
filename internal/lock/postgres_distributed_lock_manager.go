package lock

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

const (
	acquireTimeout = time.Minute
	releaseTimeout = 5 * time.Second
)

// PostgresDistributedLockManager holds each advisory lock on a dedicated
// connection checked out of the pool. Advisory locks are session-scoped, so
// the session that acquired a lock must be the one that releases it; running
// the unlock through the pool could land on a different session and leave the
// lock held forever.
type PostgresDistributedLockManager struct {
	db *sql.DB

	mu    sync.Mutex
	conns map[int]*sql.Conn
}

func NewPostgresDistributedLockManager(db *sql.DB) *PostgresDistributedLockManager {
	return &PostgresDistributedLockManager{
		db:    db,
		conns: make(map[int]*sql.Conn),
	}
}

func (l *PostgresDistributedLockManager) Acquire(lockID int) error {
	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()

	conn, err := l.reserve(ctx, lockID)
	if err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		l.unreserve(lockID, conn)
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	return nil
}

func (l *PostgresDistributedLockManager) TryAcquire(lockID int) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	conn, err := l.reserve(ctx, lockID)
	if err != nil {
		return false, err
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		l.unreserve(lockID, conn)
		return false, fmt.Errorf("failed to try lock: %w", err)
	}
	if !acquired {
		l.unreserve(lockID, conn)
	}

	return acquired, nil
}

func (l *PostgresDistributedLockManager) Release(lockID int) error {
	l.mu.Lock()
	conn, held := l.conns[lockID]
	delete(l.conns, lockID)
	l.mu.Unlock()
	if !held {
		return fmt.Errorf("lock %d is not held", lockID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	_, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID)
	closeErr := conn.Close()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	return closeErr
}

// reserve checks out a pooled connection and records it as the lock's
// session before any lock statement runs on it.
func (l *PostgresDistributedLockManager) reserve(ctx context.Context, lockID int) (*sql.Conn, error) {
	l.mu.Lock()
	if _, held := l.conns[lockID]; held {
		l.mu.Unlock()
		return nil, fmt.Errorf("lock %d is already held", lockID)
	}
	l.mu.Unlock()

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.conns[lockID] = conn
	l.mu.Unlock()

	return conn, nil
}

func (l *PostgresDistributedLockManager) unreserve(lockID int, conn *sql.Conn) {
	l.mu.Lock()
	delete(l.conns, lockID)
	l.mu.Unlock()
	_ = conn.Close()
}
