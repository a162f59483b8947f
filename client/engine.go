// Package client is the command surface of the engine: a thin facade over
// the lifecycle managers and the session engine, consumed by whatever
// command layer sits in front (CLI, chat commands). Every call is rejected
// until the startup coordinator has marked all components ready.
package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"guildwarden/internal/models"
	"guildwarden/internal/ready"
	"guildwarden/internal/session"
)

// ErrInitializing is returned while startup recovery and reconciliation are
// still in flight.
var ErrInitializing = errors.New("engine is still initializing")

// SanctionManager is the mute lifecycle consumed by the facade.
type SanctionManager interface {
	Apply(ctx context.Context, subjectID string, duration time.Duration, actor, reason string) error
	Restore(ctx context.Context, subjectID, reason string) error
	Active(ctx context.Context) ([]models.MuteRecord, error)
}

// VoteManager is the poll lifecycle consumed by the facade.
type VoteManager interface {
	Create(ctx context.Context, channelRef, question string, duration time.Duration, options []string, actor string) error
	End(ctx context.Context, question, actor string) error
	Active(ctx context.Context) ([]models.PollRecord, error)
}

// SessionRunner is the session engine surface consumed by the facade.
type SessionRunner interface {
	Start(channelRef string, rounds int, stake, increment int64, signupWindow time.Duration) (*session.Session, error)
	Join(channelRef, participant string, sessionScope bool)
	Leave(channelRef, participant string, sessionScope bool)
	Active(channelRef string) bool
}

type Engine struct {
	Sanctions SanctionManager
	Votes     VoteManager
	Sessions  SessionRunner

	readiness *ready.Registry
	logger    *zap.Logger
}

func NewEngine(sanctions SanctionManager, votes VoteManager, sessions SessionRunner, readiness *ready.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		Sanctions: sanctions,
		Votes:     votes,
		Sessions:  sessions,
		readiness: readiness,
		logger:    logger,
	}
}

// Ready reports whether every registered component has finished starting up.
func (e *Engine) Ready() bool {
	return e.readiness.AllReady()
}

func (e *Engine) guard() error {
	if !e.readiness.AllReady() {
		e.logger.Debug("command rejected, components missing",
			zap.Strings("missing", e.readiness.Missing()))
		return ErrInitializing
	}
	return nil
}

// ApplySanction mutes a subject; a zero duration means indefinite.
func (e *Engine) ApplySanction(ctx context.Context, subjectID string, duration time.Duration, actor, reason string) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.Sanctions.Apply(ctx, subjectID, duration, actor, reason)
}

// LiftSanction restores the subject's snapshot roles. Lifting a subject that
// is not muted is a no-op.
func (e *Engine) LiftSanction(ctx context.Context, subjectID, reason string) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.Sanctions.Restore(ctx, subjectID, reason)
}

// ActiveSanctions lists the current mute records.
func (e *Engine) ActiveSanctions(ctx context.Context) ([]models.MuteRecord, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.Sanctions.Active(ctx)
}

// CreateVote opens a timed vote in the channel.
func (e *Engine) CreateVote(ctx context.Context, channelRef, question string, duration time.Duration, options []string, actor string) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.Votes.Create(ctx, channelRef, question, duration, options, actor)
}

// EndVote closes a vote before its expiry.
func (e *Engine) EndVote(ctx context.Context, question, actor string) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.Votes.End(ctx, question, actor)
}

// ActiveVotes lists the currently open polls.
func (e *Engine) ActiveVotes(ctx context.Context) ([]models.PollRecord, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.Votes.Active(ctx)
}

// StartSession launches the round loop for the channel.
func (e *Engine) StartSession(channelRef string, rounds int, stake, increment int64, signupWindow time.Duration) (*session.Session, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.Sessions.Start(channelRef, rounds, stake, increment, signupWindow)
}

// JoinSession and LeaveSession forward inbound signals; outside a signup
// window they are dropped, so a readiness failure drops them too.
func (e *Engine) JoinSession(channelRef, participant string, sessionScope bool) {
	if e.guard() != nil {
		return
	}
	e.Sessions.Join(channelRef, participant, sessionScope)
}

func (e *Engine) LeaveSession(channelRef, participant string, sessionScope bool) {
	if e.guard() != nil {
		return
	}
	e.Sessions.Leave(channelRef, participant, sessionScope)
}

// SessionActive reports whether the channel holds a live session.
func (e *Engine) SessionActive(channelRef string) bool {
	return e.guard() == nil && e.Sessions.Active(channelRef)
}
