// Package session drives bounded multi-round group activities. Each channel
// holds at most one live Session; the round loop runs in its own goroutine
// and consumes join/leave signals through a channel, so the roster is never
// mutated from two sides at once.
//
// Sessions are ephemeral: nothing is persisted, a crash mid-session loses
// the run.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"guildwarden/custom_errors"
	"guildwarden/internal/constants"
	"guildwarden/internal/gateway"
	"guildwarden/internal/metrics"
	"guildwarden/internal/state"
)

const defaultGrace = 8 * time.Second

const signalBuffer = 64

type Engine struct {
	gateway   gateway.Messenger
	collector *metrics.Collector
	logger    *zap.Logger
	grace     time.Duration
	roll      RollFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

type EngineOption func(*Engine)

// WithGracePeriod overrides the last-call grace period.
func WithGracePeriod(grace time.Duration) EngineOption {
	return func(e *Engine) { e.grace = grace }
}

// WithRollFunc overrides the roll source.
func WithRollFunc(roll RollFunc) EngineOption {
	return func(e *Engine) { e.roll = roll }
}

func NewEngine(messenger gateway.Messenger, collector *metrics.Collector, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		gateway:   messenger,
		collector: collector,
		logger:    logger,
		grace:     defaultGrace,
		roll:      defaultRoll,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start validates the parameters, claims the channel, and launches the round
// loop. The returned Session is live; its Done channel closes once it has
// settled and the channel is available again.
func (e *Engine) Start(channelRef string, rounds int, stake, increment int64, signupWindow time.Duration) (*Session, error) {
	verr := &custom_errors.ValidationError{}
	if rounds < 1 || rounds > constants.MaxSessionRounds {
		verr.Add(fmt.Errorf("rounds must be between 1 and %d, got %d", constants.MaxSessionRounds, rounds))
	}
	if stake < 0 {
		verr.Add(fmt.Errorf("stake must not be negative, got %d", stake))
	}
	if increment < 0 || increment > constants.MaxStakeIncrement {
		verr.Add(fmt.Errorf("stake increment must be between 0 and %d, got %d", constants.MaxStakeIncrement, increment))
	}
	if signupWindow <= 0 {
		verr.Add(fmt.Errorf("signup window must be positive"))
	}
	if verr.HasError() {
		return nil, verr
	}

	s := &Session{
		ID:           uuid.NewString(),
		ChannelRef:   channelRef,
		rounds:       rounds,
		stake:        stake,
		increment:    increment,
		signupWindow: signupWindow,
		grace:        e.grace,
		roll:         e.roll,
		gateway:      e.gateway,
		collector:    e.collector,
		logger:       e.logger,
		onSettled:    e.release,
		st:           state.SessionIdle,
		signals:      make(chan signal, signalBuffer),
		round:        newRoster(),
		carry:        newRoster(),
		done:         make(chan struct{}),
	}

	e.mu.Lock()
	if _, busy := e.sessions[channelRef]; busy {
		e.mu.Unlock()
		return nil, custom_errors.NewConflict("session", channelRef)
	}
	e.sessions[channelRef] = s
	e.mu.Unlock()

	e.collector.SessionsActive.Inc()
	e.logger.Info("session started",
		zap.String("session", s.ID),
		zap.String("channel", channelRef),
		zap.Int("rounds", rounds),
		zap.Int64("stake", stake),
		zap.Int64("increment", increment))

	go s.run()
	return s, nil
}

// Join delivers a join signal to the channel's live session. sessionScope
// joiners re-enter every subsequent round automatically. Signals for idle
// channels or outside a signup window are dropped.
func (e *Engine) Join(channelRef, participant string, sessionScope bool) {
	if s := e.lookup(channelRef); s != nil {
		s.offer(signal{kind: joinSignal, participant: participant, sessionScope: sessionScope})
	}
}

// Leave delivers a leave signal; a session-scope leave also drops the
// participant from the carry-over set.
func (e *Engine) Leave(channelRef, participant string, sessionScope bool) {
	if s := e.lookup(channelRef); s != nil {
		s.offer(signal{kind: leaveSignal, participant: participant, sessionScope: sessionScope})
	}
}

// Active reports whether the channel currently holds a live session.
func (e *Engine) Active(channelRef string) bool {
	return e.lookup(channelRef) != nil
}

func (e *Engine) lookup(channelRef string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[channelRef]
}

func (e *Engine) release(s *Session) {
	e.mu.Lock()
	delete(e.sessions, s.ChannelRef)
	e.mu.Unlock()
}
