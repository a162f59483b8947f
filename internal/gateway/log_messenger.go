package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"guildwarden/internal/models"
)

// LogMessenger is a standalone Messenger that records every call to the log
// and keeps role sets and poll state in memory. The daemon runs against it
// when no real platform adapter is wired in.
type LogMessenger struct {
	logger *zap.Logger

	mu    sync.Mutex
	roles map[string][]string
	polls map[models.PollRef]models.LivePoll
	seq   int
}

func NewLogMessenger(logger *zap.Logger) *LogMessenger {
	return &LogMessenger{
		logger: logger,
		roles:  make(map[string][]string),
		polls:  make(map[models.PollRef]models.LivePoll),
	}
}

func (g *LogMessenger) SendNotice(ctx context.Context, channelRef string, notice models.Notice) error {
	g.logger.Info("notice",
		zap.String("channel", channelRef),
		zap.String("title", notice.Title),
		zap.String("body", notice.Body))
	return nil
}

func (g *LogMessenger) MemberRoles(ctx context.Context, subjectID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.roles[subjectID]...), nil
}

func (g *LogMessenger) ReplaceMemberRoles(ctx context.Context, subjectID string, roles []string) error {
	g.mu.Lock()
	g.roles[subjectID] = append([]string(nil), roles...)
	g.mu.Unlock()

	g.logger.Info("roles replaced", zap.String("subject", subjectID), zap.Strings("roles", roles))
	return nil
}

func (g *LogMessenger) OpenPoll(ctx context.Context, channelRef, question string, duration time.Duration, options []string) (models.PollRef, error) {
	g.mu.Lock()
	g.seq++
	ref := models.PollRef{
		MessageRef: fmt.Sprintf("msg-%d", g.seq),
		ChannelRef: channelRef,
	}
	g.polls[ref] = models.LivePoll{ExpiresAt: time.Now().Add(duration)}
	g.mu.Unlock()

	g.logger.Info("poll opened",
		zap.String("channel", channelRef),
		zap.String("question", question),
		zap.Int("options", len(options)),
		zap.Duration("duration", duration))
	return ref, nil
}

func (g *LogMessenger) PollStatus(ctx context.Context, ref models.PollRef) (models.LivePoll, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	live, ok := g.polls[ref]
	if !ok {
		return models.LivePoll{Finalized: true}, nil
	}
	if !live.Finalized && time.Now().After(live.ExpiresAt) {
		live.Finalized = true
		g.polls[ref] = live
	}
	return live, nil
}

func (g *LogMessenger) EndPoll(ctx context.Context, ref models.PollRef) error {
	g.mu.Lock()
	live := g.polls[ref]
	live.Finalized = true
	g.polls[ref] = live
	g.mu.Unlock()

	g.logger.Info("poll ended", zap.String("message", ref.MessageRef))
	return nil
}
