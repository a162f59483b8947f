// Package scheduler fires registered callbacks at specified times. The timer
// state is an in-memory cache over the job store: every job is persisted
// before it is armed, deleted when it is claimed for firing, and re-armed
// from storage exactly once at startup via Recover.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"guildwarden/internal/constants"
	"guildwarden/internal/lock"
	"guildwarden/internal/metrics"
	"guildwarden/internal/models"
	"guildwarden/internal/store"
)

var (
	ErrNotRecovered     = errors.New("scheduler: Recover must run before scheduling")
	ErrAlreadyRecovered = errors.New("scheduler: Recover already ran")
	ErrStopped          = errors.New("scheduler: stopped")
)

// purgeRetention is how long a persisted job may sit past its fire time
// before housekeeping discards it. A job this stale survived a restart
// without any registered handler claiming it.
const purgeRetention = 24 * time.Hour

const storeCallTimeout = 30 * time.Second

type Scheduler struct {
	store     store.JobStore
	lockMgr   lock.DistributedLockManager
	collector *metrics.Collector
	logger    *zap.Logger
	handlers  *handlerRegistry
	sem       *semaphore.Weighted
	cron      *cron.Cron
	cronSpec  string

	mu        sync.Mutex
	timers    map[int64]*time.Timer
	recovered bool
	stopped   bool

	wg sync.WaitGroup
}

// New creates a Scheduler. lockMgr may be nil, in which case housekeeping
// runs unguarded (single-instance deployments and tests).
func New(jobStore store.JobStore, lockMgr lock.DistributedLockManager, collector *metrics.Collector, logger *zap.Logger, workerCount int, housekeepingSpec string) *Scheduler {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Scheduler{
		store:     jobStore,
		lockMgr:   lockMgr,
		collector: collector,
		logger:    logger,
		handlers:  newHandlerRegistry(),
		sem:       semaphore.NewWeighted(int64(workerCount)),
		cron:      cron.New(),
		cronSpec:  housekeepingSpec,
		timers:    make(map[int64]*time.Timer),
	}
}

// Register adds a job handler by name. All handlers must be registered
// before Recover, so recovered jobs find their callbacks.
func (s *Scheduler) Register(name string, fn HandlerFunc) error {
	return s.handlers.register(name, fn)
}

// Schedule persists a one-shot job and arms its timer. Rejected until
// Recover has run, so a restart cannot interleave new work with re-arming.
func (s *Scheduler) Schedule(ctx context.Context, handler string, fireAt time.Time, args ...any) (int64, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, ErrStopped
	}
	if !s.recovered {
		s.mu.Unlock()
		return 0, ErrNotRecovered
	}
	s.mu.Unlock()

	if _, err := s.handlers.get(handler); err != nil {
		return 0, err
	}

	id, err := s.store.Insert(ctx, handler, fireAt, args...)
	if err != nil {
		return 0, err
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return 0, err
	}

	s.arm(models.ScheduledJob{ID: id, Handler: handler, Payload: payload, FireAt: fireAt})
	s.collector.JobsPending.Inc()

	return id, nil
}

// Cancel is best effort: if the job already fired, the timer and the row are
// both gone and this is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, id int64) error {
	s.mu.Lock()
	if timer, ok := s.timers[id]; ok {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.collector.JobsPending.Dec()
	}
	return nil
}

// RegisterRecurring adds a recurring callback on the scheduler's cron, e.g.
// a weekly reminder notice. The cron starts with Recover; entries may be
// added before or after.
func (s *Scheduler) RegisterRecurring(spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, fn)
	return err
}

// Recover re-arms every persisted job. It must run exactly once, before any
// Schedule call; jobs whose fire time already passed fire on the next tick.
// It also starts the cron for housekeeping and recurring callbacks.
func (s *Scheduler) Recover(ctx context.Context) error {
	s.mu.Lock()
	if s.recovered {
		s.mu.Unlock()
		return ErrAlreadyRecovered
	}
	s.recovered = true
	s.mu.Unlock()

	// serialize with migrations and housekeeping purges, so the re-arm scan
	// never races a purge cycle on another instance
	if s.lockMgr != nil {
		if err := s.lockMgr.Acquire(constants.RecoveryLock); err != nil {
			return err
		}
		defer s.lockMgr.Release(constants.RecoveryLock)
	}

	jobs, err := s.store.All(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		s.arm(job)
	}

	s.collector.JobsRecovered.Add(float64(len(jobs)))
	s.collector.JobsPending.Set(float64(len(jobs)))
	s.logger.Info("scheduler recovered",
		zap.Int("jobs", len(jobs)),
		zap.Strings("handlers", s.handlers.list()))

	if s.cronSpec != "" {
		if _, err := s.cron.AddFunc(s.cronSpec, s.housekeep); err != nil {
			return err
		}
	}
	s.cron.Start()

	return nil
}

// Stop halts timers and housekeeping and waits for in-flight callbacks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cron.Stop()
	s.wg.Wait()
}

func (s *Scheduler) arm(job models.ScheduledJob) {
	delay := time.Until(job.FireAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.wg.Add(1)
	s.timers[job.ID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.fire(job)
	})
}

func (s *Scheduler) fire(job models.ScheduledJob) {
	s.mu.Lock()
	delete(s.timers, job.ID)
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
	defer cancel()

	// Deleting the row is the at-most-once claim. A job whose row is
	// already gone was cancelled or fired by another path.
	claimed, err := s.store.Remove(ctx, job.ID)
	if err != nil {
		s.logger.Error("failed to claim job", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	s.collector.JobsFired.Inc()
	s.collector.JobsPending.Dec()
	s.execute(job)
}

// execute isolates one callback: a panic or error is logged and never
// reaches sibling jobs.
func (s *Scheduler) execute(job models.ScheduledJob) {
	defer func() {
		if p := recover(); p != nil {
			s.collector.JobsFailed.Inc()
			s.logger.Error("job callback panicked",
				zap.Int64("job_id", job.ID),
				zap.String("handler", job.Handler),
				zap.Any("panic", p))
		}
	}()

	fn, err := s.handlers.get(job.Handler)
	if err != nil {
		s.collector.JobsFailed.Inc()
		s.logger.Error("job has no handler", zap.Int64("job_id", job.ID), zap.String("handler", job.Handler))
		return
	}

	var args []any
	if err := json.Unmarshal(job.Payload, &args); err != nil {
		s.collector.JobsFailed.Inc()
		s.logger.Error("invalid job payload", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}

	if err := fn(args...); err != nil {
		s.collector.JobsFailed.Inc()
		s.logger.Error("job callback failed",
			zap.Int64("job_id", job.ID),
			zap.String("handler", job.Handler),
			zap.Error(err))
	}
}

func (s *Scheduler) housekeep() {
	if s.lockMgr != nil {
		acquired, err := s.lockMgr.TryAcquire(constants.HousekeepingLock)
		if err != nil {
			s.logger.Warn("housekeeping lock failed", zap.Error(err))
			return
		}
		if !acquired {
			return
		}
		defer s.lockMgr.Release(constants.HousekeepingLock)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
	defer cancel()

	purged, err := s.store.PurgeOlderThan(ctx, time.Now().Add(-purgeRetention))
	if err != nil {
		s.logger.Warn("housekeeping purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("purged stale jobs", zap.Int64("count", purged))
	}

	if count, err := s.store.CountPending(ctx); err == nil {
		s.collector.JobsPending.Set(float64(count))
	}
}
