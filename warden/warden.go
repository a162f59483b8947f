// Package warden boots the engine: storage init, handler registration,
// scheduler recovery, poll reconciliation, readiness. It is the only place
// that knows the required startup order.
package warden

import (
	"context"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"guildwarden/client"
	"guildwarden/di"
	"guildwarden/internal/db"
	"guildwarden/internal/gateway"
	"guildwarden/internal/models"
	"guildwarden/types/config"
)

// New initializes the whole engine from the provided configuration and
// messaging gateway.
//
// The startup order is load-bearing:
//  1. Open storage and build the dependency graph.
//  2. Initialize the schema under the migration lock; storage unreachable
//     here is fatal, the engine refuses to start.
//  3. Register the mute and poll handlers, so recovered jobs find their
//     callbacks, and the configured recurring notices.
//  4. Recover the scheduler, re-arming every persisted job exactly once.
//  5. Reconcile polls against live platform state, finalizing the ones that
//     closed while the process was down.
//
// Components are marked ready as their step completes; the returned facade
// rejects commands until all of them are.
func New(ctx context.Context, cfg *config.WardenConfig, messenger gateway.Messenger, logger *zap.Logger) (*client.Engine, *di.WardenDependency, error) {
	deps, err := di.GetDependencies(cfg, messenger, logger)
	if err != nil {
		return nil, nil, err
	}

	if err = db.Init(cfg.PostgresConfig.ConnectionUrl, deps.LockMgr); err != nil {
		return nil, nil, err
	}

	if err = deps.Mutes.RegisterHandlers(); err != nil {
		return nil, nil, err
	}
	if err = deps.Polls.RegisterHandlers(); err != nil {
		return nil, nil, err
	}

	for _, n := range cfg.RecurringNotices {
		notice := models.Notice{Title: n.Title, Body: n.Body}
		channelRef := n.ChannelRef
		if err = deps.Scheduler.RegisterRecurring(n.Spec, func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := messenger.SendNotice(sendCtx, channelRef, notice); err != nil {
				logger.Warn("failed to send recurring notice",
					zap.String("channel", channelRef), zap.Error(err))
			}
		}); err != nil {
			return nil, nil, err
		}
	}

	if err = deps.Scheduler.Recover(ctx); err != nil {
		return nil, nil, err
	}
	deps.Readiness.MarkReady(di.ComponentScheduler)

	if err = deps.Polls.Reconcile(ctx); err != nil {
		return nil, nil, err
	}
	deps.Readiness.MarkReady(di.ComponentPolls)

	if active, err := deps.MuteStore.All(ctx); err == nil {
		deps.Collector.MutesActive.Set(float64(len(active)))
	}
	deps.Readiness.MarkReady(di.ComponentMutes)
	deps.Readiness.MarkReady(di.ComponentSessions)

	logger.Info("engine ready", zap.String("instance", cfg.Instance))

	engine := client.NewEngine(deps.Mutes, deps.Polls, deps.Sessions, deps.Readiness, logger)
	return engine, deps, nil
}
