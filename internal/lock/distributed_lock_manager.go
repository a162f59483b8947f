package lock

type DistributedLockManager interface {
	Acquire(lockID int) error

	// TryAcquire attempts the lock without blocking. Housekeeping uses it so
	// a single instance runs the purge while the others skip the cycle.
	TryAcquire(lockID int) (bool, error)

	Release(lockID int) error
}
