// Package poll manages timed-vote lifecycles. A poll is OPEN from creation
// until its scheduled expiry, a manual end, or startup reconciliation closes
// it; CLOSED is terminal and re-entry attempts are no-ops.
package poll

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"guildwarden/custom_errors"
	"guildwarden/internal/cache"
	"guildwarden/internal/constants"
	"guildwarden/internal/gateway"
	"guildwarden/internal/metrics"
	"guildwarden/internal/models"
	"guildwarden/internal/notify"
	"guildwarden/internal/scheduler"
	"guildwarden/internal/state"
	"guildwarden/internal/store"
)

// FinalizeHandler is the scheduler handler name for timed finalization.
const FinalizeHandler = "poll.finalize"

type Manager struct {
	store     store.PollStore
	cache     cache.PollCache
	gateway   gateway.Messenger
	sched     *scheduler.Scheduler
	auditor   *notify.Auditor
	collector *metrics.Collector
	logger    *zap.Logger

	mu sync.Mutex
}

func NewManager(pollStore store.PollStore, pollCache cache.PollCache, messenger gateway.Messenger, sched *scheduler.Scheduler, auditor *notify.Auditor, collector *metrics.Collector, logger *zap.Logger) *Manager {
	return &Manager{
		store:     pollStore,
		cache:     pollCache,
		gateway:   messenger,
		sched:     sched,
		auditor:   auditor,
		collector: collector,
		logger:    logger,
	}
}

// RegisterHandlers wires the timed-finalization callback into the scheduler.
// Must run before the scheduler recovers.
func (m *Manager) RegisterHandlers() error {
	return m.sched.Register(FinalizeHandler, func(args ...any) error {
		if len(args) < 1 {
			return fmt.Errorf("finalize job missing question argument")
		}
		question, ok := args[0].(string)
		if !ok {
			return fmt.Errorf("finalize job question is not a string: %v", args[0])
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return m.Finalize(ctx, question)
	})
}

// Create opens a timed vote. The lowercased question is the uniqueness key
// among active polls.
func (m *Manager) Create(ctx context.Context, channelRef, question string, duration time.Duration, options []string, actor string) error {
	if len(options) > constants.MaxPollOptions {
		return custom_errors.NewValidation("poll has %d options, limit is %d", len(options), constants.MaxPollOptions)
	}
	if duration <= 0 {
		return custom_errors.NewValidation("poll duration must be positive")
	}

	key := strings.ToLower(question)

	m.mu.Lock()
	defer m.mu.Unlock()

	if active, err := m.isActive(ctx, key); err != nil {
		return err
	} else if active {
		return custom_errors.NewConflict("poll", key)
	}

	ref, err := m.gateway.OpenPoll(ctx, channelRef, question, duration, options)
	if err != nil {
		return custom_errors.NewCollaborator("open poll", err)
	}

	rec := models.PollRecord{
		Question:   key,
		MessageRef: ref.MessageRef,
		ChannelRef: ref.ChannelRef,
		ExpiresAt:  time.Now().Add(duration),
	}
	if err := m.store.Insert(ctx, rec); err != nil {
		return err
	}
	if err := m.cache.Add(ctx, key); err != nil {
		m.logger.Warn("failed to cache poll question", zap.String("question", key), zap.Error(err))
	}

	if _, err := m.sched.Schedule(ctx, FinalizeHandler, rec.ExpiresAt, key); err != nil {
		return err
	}

	m.auditor.Record("poll_opened", key, actor, "")
	m.logger.Info("poll created",
		zap.String("question", key),
		zap.String("channel", channelRef),
		zap.String("state", state.PollOpen.String()),
		zap.Duration("duration", duration))
	return nil
}

// Finalize closes the books on a poll: it removes the record, which is the
// atomic claim. The platform closes the vote itself at expiry, so the
// scheduled path has nothing to tell the gateway. Finalizing a question that
// is no longer active is a no-op; duplicate triggers are expected.
func (m *Manager) Finalize(ctx context.Context, question string) error {
	key := strings.ToLower(question)

	rec, err := m.store.Remove(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	m.finalized(ctx, *rec)
	return nil
}

// End closes a vote before its expiry. Unlike the scheduled path it has to
// tell the platform to close the vote, so the record is claimed first and
// reinstated if the gateway call fails.
func (m *Manager) End(ctx context.Context, question, actor string) error {
	key := strings.ToLower(question)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Remove(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if err := m.gateway.EndPoll(ctx, rec.Ref()); err != nil {
		if insertErr := m.store.Insert(ctx, *rec); insertErr != nil {
			m.logger.Error("failed to reinstate poll record after gateway failure",
				zap.String("question", key), zap.Error(insertErr))
		}
		return custom_errors.NewCollaborator("end poll", err)
	}

	m.auditor.Record("poll_ended", key, actor, "")
	m.finalized(ctx, *rec)
	return nil
}

// Reconcile repairs poll state after a restart. Polls whose live state
// reports the vote already closed are finalized immediately; the rest get a
// fresh finalize job at their recorded expiry. Without this step a poll that
// expired during downtime would never be finalized.
//
// It also reseeds the question cache. Must run after the scheduler has
// recovered. A recovered finalize job may fire alongside the one scheduled
// here; finalization is idempotent, so the loser no-ops.
func (m *Manager) Reconcile(ctx context.Context) error {
	recs, err := m.store.All(ctx)
	if err != nil {
		return err
	}

	var expired, rescheduled int
	for _, rec := range recs {
		live, err := m.gateway.PollStatus(ctx, rec.Ref())
		if err != nil {
			// keep the record and trust the stored expiry; the scheduled
			// job will finalize it, late but not lost
			m.logger.Warn("failed to fetch live poll state",
				zap.String("question", rec.Question), zap.Error(err))
			live = models.LivePoll{ExpiresAt: rec.ExpiresAt}
		}

		if live.Finalized {
			if err := m.Finalize(ctx, rec.Question); err != nil {
				return err
			}
			expired++
			continue
		}

		if err := m.cache.Add(ctx, rec.Question); err != nil {
			m.logger.Warn("failed to cache poll question", zap.Error(err))
		}
		if _, err := m.sched.Schedule(ctx, FinalizeHandler, rec.ExpiresAt, rec.Question); err != nil {
			return err
		}
		rescheduled++
	}

	m.logger.Info("polls reconciled",
		zap.Int("expired", expired),
		zap.Int("rescheduled", rescheduled))
	return nil
}

// Active lists the currently open polls.
func (m *Manager) Active(ctx context.Context) ([]models.PollRecord, error) {
	return m.store.All(ctx)
}

func (m *Manager) isActive(ctx context.Context, key string) (bool, error) {
	if active, err := m.cache.Contains(ctx, key); err == nil && active {
		return true, nil
	}

	// the cache can miss after eviction; the store is the source of truth
	rec, err := m.store.Find(ctx, key)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

func (m *Manager) finalized(ctx context.Context, rec models.PollRecord) {
	if err := m.cache.Remove(ctx, rec.Question); err != nil {
		m.logger.Warn("failed to evict poll question", zap.String("question", rec.Question), zap.Error(err))
	}
	m.collector.PollsFinalized.Inc()
	m.logger.Info("poll finalized",
		zap.String("question", rec.Question),
		zap.String("state", state.PollClosed.String()))
}
