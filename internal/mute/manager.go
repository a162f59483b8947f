// Package mute manages sanction lifecycles: snapshot the subject's roles,
// hold them in the muted marker role, and restore the snapshot when the
// sanction expires or is lifted — whichever comes first.
package mute

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"guildwarden/custom_errors"
	"guildwarden/internal/gateway"
	"guildwarden/internal/metrics"
	"guildwarden/internal/models"
	"guildwarden/internal/notify"
	"guildwarden/internal/scheduler"
	"guildwarden/internal/store"
)

// RestoreHandler is the scheduler handler name for timed restorations.
const RestoreHandler = "mute.restore"

const expiredReason = "Mute time expired."

type Manager struct {
	store     store.MuteStore
	gateway   gateway.Messenger
	sched     *scheduler.Scheduler
	auditor   *notify.Auditor
	collector *metrics.Collector
	logger    *zap.Logger
	mutedRole string

	// serializes apply/restore so concurrent triggers for the same subject
	// observe each other's writes in dispatch order
	mu sync.Mutex
}

func NewManager(muteStore store.MuteStore, messenger gateway.Messenger, sched *scheduler.Scheduler, auditor *notify.Auditor, collector *metrics.Collector, logger *zap.Logger, mutedRole string) *Manager {
	return &Manager{
		store:     muteStore,
		gateway:   messenger,
		sched:     sched,
		auditor:   auditor,
		collector: collector,
		logger:    logger,
		mutedRole: mutedRole,
	}
}

// RegisterHandlers wires the timed-restoration callback into the scheduler.
// Must run before the scheduler recovers.
func (m *Manager) RegisterHandlers() error {
	return m.sched.Register(RestoreHandler, func(args ...any) error {
		if len(args) < 1 {
			return fmt.Errorf("restore job missing subject argument")
		}
		subjectID, ok := args[0].(string)
		if !ok {
			return fmt.Errorf("restore job subject is not a string: %v", args[0])
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return m.Restore(ctx, subjectID, expiredReason)
	})
}

// Apply sanctions a subject: snapshot its current roles, persist the record,
// swap the role set to the muted marker, and schedule restoration when a
// duration is given. A subject already bearing a record is skipped silently,
// so sanctions never stack.
func (m *Manager) Apply(ctx context.Context, subjectID string, duration time.Duration, actor, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.Find(ctx, subjectID)
	if err != nil {
		return err
	}
	if existing != nil {
		m.logger.Debug("subject already muted, skipping", zap.String("subject", subjectID))
		return nil
	}

	roles, err := m.gateway.MemberRoles(ctx, subjectID)
	if err != nil {
		return custom_errors.NewCollaborator("member roles", err)
	}

	rec := models.MuteRecord{
		SubjectID:    subjectID,
		RoleSnapshot: roles,
	}
	if duration > 0 {
		expires := time.Now().Add(duration)
		rec.ExpiresAt = &expires
	}

	if err := m.store.Insert(ctx, rec); err != nil {
		return err
	}

	// The record is kept even if the role swap fails: a retry or a manual
	// lift can still recover the subject from the persisted snapshot.
	if err := m.gateway.ReplaceMemberRoles(ctx, subjectID, []string{m.mutedRole}); err != nil {
		m.logger.Error("failed to swap roles for muted subject",
			zap.String("subject", subjectID), zap.Error(err))
		return custom_errors.NewCollaborator("replace roles", err)
	}

	if rec.ExpiresAt != nil {
		if _, err := m.sched.Schedule(ctx, RestoreHandler, *rec.ExpiresAt, subjectID); err != nil {
			return err
		}
	}

	m.collector.MutesActive.Inc()
	m.auditor.Record("mute", subjectID, actor, reason)
	m.logger.Info("subject muted",
		zap.String("subject", subjectID),
		zap.Duration("duration", duration),
		zap.String("reason", reason))
	return nil
}

// Restore lifts a sanction. Removing the record is the atomic claim: both
// the scheduled-timeout path and the manual path land here, whichever fires
// first wins and the other observes the no-op branch.
func (m *Manager) Restore(ctx context.Context, subjectID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Remove(ctx, subjectID)
	if err != nil {
		return err
	}
	if rec == nil {
		// already restored by the other path
		return nil
	}

	if err := m.gateway.ReplaceMemberRoles(ctx, subjectID, rec.RoleSnapshot); err != nil {
		// put the record back so the sanction state survives for a retry
		if insertErr := m.store.Insert(ctx, *rec); insertErr != nil {
			m.logger.Error("failed to reinstate mute record after gateway failure",
				zap.String("subject", subjectID), zap.Error(insertErr))
		}
		return custom_errors.NewCollaborator("replace roles", err)
	}

	m.collector.MutesActive.Dec()
	m.auditor.Record("unmute", subjectID, "", reason)
	m.logger.Info("subject unmuted", zap.String("subject", subjectID), zap.String("reason", reason))
	return nil
}

// Active lists the current mute records.
func (m *Manager) Active(ctx context.Context) ([]models.MuteRecord, error) {
	return m.store.All(ctx)
}
