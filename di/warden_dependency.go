package di

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"guildwarden/internal/cache"
	"guildwarden/internal/gateway"
	"guildwarden/internal/lock"
	"guildwarden/internal/metrics"
	"guildwarden/internal/mute"
	"guildwarden/internal/notify"
	"guildwarden/internal/poll"
	"guildwarden/internal/ready"
	"guildwarden/internal/scheduler"
	"guildwarden/internal/session"
	"guildwarden/internal/store"
	"guildwarden/types/config"
)

// Required components tracked by the readiness registry; commands are
// rejected until the startup coordinator marks all of them.
const (
	ComponentScheduler = "scheduler"
	ComponentMutes     = "mutes"
	ComponentPolls     = "polls"
	ComponentSessions  = "sessions"
)

type WardenDependency struct {
	JobStore  store.JobStore
	MuteStore store.MuteStore
	PollStore store.PollStore
	LockMgr   lock.DistributedLockManager
	PollCache cache.PollCache

	Scheduler *scheduler.Scheduler
	Auditor   *notify.Auditor
	Mutes     *mute.Manager
	Polls     *poll.Manager
	Sessions  *session.Engine

	Readiness *ready.Registry
	Collector *metrics.Collector

	publisher notify.Publisher
	sqlDB     *sql.DB
}

// createWardenDependency wires stores, the lock manager, the scheduler, the
// lifecycle managers and the session engine from the configured backends.
func createWardenDependency(cfg *config.WardenConfig, sqlDB *sql.DB, redisClient *redis.Client, messenger gateway.Messenger, logger *zap.Logger) (*WardenDependency, error) {
	jobStore := createJobStore(cfg.StorageDriver, sqlDB)
	muteStore := createMuteStore(cfg.StorageDriver, sqlDB)
	pollStore := createPollStore(cfg.StorageDriver, sqlDB)
	lockMgr := createDistributedLockManager(cfg.StorageDriver, sqlDB)
	pollCache := createPollCache(cfg.CacheDriver, redisClient)

	collector := metrics.NewCollector()
	sched := scheduler.New(jobStore, lockMgr, collector, logger, cfg.WorkerCount, cfg.HousekeepingSpec)

	var auditor *notify.Auditor
	var publisher notify.Publisher
	if cfg.AuditEnabled {
		mq := cfg.RabbitMQConfig
		broker, err := notify.NewRabbitMQ(mq.URL, mq.Exchange, mq.Queue, "")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		publisher = broker
		auditor = notify.NewAuditor(broker, mq.Queue, logger)
	}

	mutes := mute.NewManager(muteStore, messenger, sched, auditor, collector, logger, cfg.MutedRole)
	polls := poll.NewManager(pollStore, pollCache, messenger, sched, auditor, collector, logger)
	sessions := session.NewEngine(messenger, collector, logger, session.WithGracePeriod(cfg.SignupGrace))

	readiness := ready.New(ComponentScheduler, ComponentMutes, ComponentPolls, ComponentSessions)

	return &WardenDependency{
		JobStore:  jobStore,
		MuteStore: muteStore,
		PollStore: pollStore,
		LockMgr:   lockMgr,
		PollCache: pollCache,
		Scheduler: sched,
		Auditor:   auditor,
		Mutes:     mutes,
		Polls:     polls,
		Sessions:  sessions,
		Readiness: readiness,
		Collector: collector,
		publisher: publisher,
		sqlDB:     sqlDB,
	}, nil
}

// Close releases every held connection. The scheduler is stopped first so no
// in-flight callback hits a closed store.
func (d *WardenDependency) Close() error {
	d.Scheduler.Stop()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if d.publisher != nil {
		keep(d.publisher.Close())
	}
	keep(d.PollCache.Close())
	keep(d.JobStore.Close())
	keep(d.MuteStore.Close())
	keep(d.PollStore.Close())
	if d.sqlDB != nil {
		keep(d.sqlDB.Close())
	}
	return firstErr
}
