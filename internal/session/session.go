package session

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"guildwarden/internal/constants"
	"guildwarden/internal/gateway"
	"guildwarden/internal/metrics"
	"guildwarden/internal/models"
	"guildwarden/internal/state"
)

// RollFunc draws one participant's roll, a uniform integer in [0, stake].
type RollFunc func(stake int64) int64

func defaultRoll(stake int64) int64 {
	return rand.Int63n(stake + 1)
}

type signalKind int

const (
	joinSignal signalKind = iota
	leaveSignal
)

type signal struct {
	kind         signalKind
	participant  string
	sessionScope bool
}

// roster is an ordered, case-insensitively-deduplicated participant set.
// Identity is the lowercased name; the original casing of the first join is
// what notices and ledger entries show.
type roster struct {
	order []string
	index map[string]struct{}
}

func newRoster() *roster {
	return &roster{index: make(map[string]struct{})}
}

func (r *roster) add(name string) bool {
	key := strings.ToLower(name)
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = struct{}{}
	r.order = append(r.order, name)
	return true
}

func (r *roster) remove(name string) bool {
	key := strings.ToLower(name)
	if _, ok := r.index[key]; !ok {
		return false
	}
	delete(r.index, key)
	for i, existing := range r.order {
		if strings.ToLower(existing) == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *roster) len() int {
	return len(r.order)
}

func (r *roster) members() []string {
	return append([]string(nil), r.order...)
}

// Session is one bounded run of the multi-round activity, tied to a single
// channel. All round state is owned by the run goroutine; join/leave signals
// reach it only through the signal channel.
type Session struct {
	ID         string
	ChannelRef string

	rounds       int
	stake        int64
	increment    int64
	signupWindow time.Duration
	grace        time.Duration
	roll         RollFunc

	gateway   gateway.Messenger
	collector *metrics.Collector
	logger    *zap.Logger
	onSettled func(*Session)

	signals chan signal

	stateMu sync.RWMutex
	st      state.SessionState

	rosterMu sync.Mutex
	round    *roster
	carry    *roster

	ledger []models.LedgerEntry
	done   chan struct{}
}

// Done closes when the session has settled and the channel is free again.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Ledger returns the accumulated payouts. Only safe to read after Done.
func (s *Session) Ledger() []models.LedgerEntry {
	return append([]models.LedgerEntry(nil), s.ledger...)
}

// Participants snapshots the current round's roster in join order.
func (s *Session) Participants() []string {
	s.rosterMu.Lock()
	defer s.rosterMu.Unlock()
	return s.round.members()
}

func (s *Session) currentState() state.SessionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.st
}

func (s *Session) setState(to state.SessionState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if !state.IsValidSessionTransition(s.st, to) {
		s.logger.Warn("invalid session transition",
			zap.String("session", s.ID),
			zap.String("from", s.st.String()),
			zap.String("to", to.String()))
	}
	s.st = to
}

// offer hands a signal to the run goroutine. Signals outside the signup
// window are dropped, as is anything beyond the channel's buffer.
func (s *Session) offer(sig signal) {
	if s.currentState() != state.SessionSignupOpen {
		return
	}
	select {
	case s.signals <- sig:
	default:
		s.logger.Debug("signal buffer full, dropping",
			zap.String("session", s.ID),
			zap.String("participant", sig.participant))
	}
}

// run is the round loop. Signup suspends in consumeSignals rather than
// blocking, so signals for this session and everything else in the process
// keep being serviced.
func (s *Session) run() {
	defer s.finish()

	for round := 1; round <= s.rounds; round++ {
		s.openRound(round)
		s.consumeSignals(s.signupWindow)

		s.notify("Last call", fmt.Sprintf("Signups close in %s.", s.grace))
		s.consumeSignals(s.grace)

		s.setState(state.SessionLocked)
		s.drainSignals()

		if s.participantCount() < 2 {
			s.notify("Session aborted", "Not enough players at lock time.")
			s.logger.Info("session aborted early",
				zap.String("session", s.ID),
				zap.Int("round", round))
			return
		}

		result := s.resolveRound()
		s.logger.Info("round resolved",
			zap.String("session", s.ID),
			zap.Int("round", round),
			zap.Int64("stake", result.Stake),
			zap.String("winner", result.Winner),
			zap.String("loser", result.Loser))

		s.stake += s.increment
	}
}

func (s *Session) openRound(round int) {
	s.rosterMu.Lock()
	s.round = newRoster()
	for _, name := range s.carry.members() {
		s.round.add(name)
	}
	s.rosterMu.Unlock()

	s.setState(state.SessionSignupOpen)
	s.notify("Signup open",
		fmt.Sprintf("Round %d of %d, stake %d. Join now.", round, s.rounds, s.stake))
}

func (s *Session) consumeSignals(window time.Duration) {
	timer := time.NewTimer(window)
	defer timer.Stop()
	for {
		select {
		case sig := <-s.signals:
			s.apply(sig)
		case <-timer.C:
			return
		}
	}
}

// drainSignals discards whatever slipped into the buffer before the state
// flipped to locked.
func (s *Session) drainSignals() {
	for {
		select {
		case <-s.signals:
		default:
			return
		}
	}
}

func (s *Session) apply(sig signal) {
	full := false

	s.rosterMu.Lock()
	switch sig.kind {
	case joinSignal:
		if s.round.len() >= constants.MaxParticipants {
			full = true
			break
		}
		s.round.add(sig.participant)
		if sig.sessionScope {
			s.carry.add(sig.participant)
		}
	case leaveSignal:
		s.round.remove(sig.participant)
		if sig.sessionScope {
			s.carry.remove(sig.participant)
		}
	}
	s.rosterMu.Unlock()

	if full {
		s.notify("Session full",
			fmt.Sprintf("The table is capped at %d players.", constants.MaxParticipants))
	}
}

func (s *Session) participantCount() int {
	s.rosterMu.Lock()
	defer s.rosterMu.Unlock()
	return s.round.len()
}

// resolveRound rolls for every locked-in participant and records the payout.
// The roster is sorted case-insensitively before rolling, so roll order and
// tie-breaking are deterministic given the roll source.
func (s *Session) resolveRound() models.RoundResult {
	s.rosterMu.Lock()
	players := s.round.members()
	s.rosterMu.Unlock()

	sort.Slice(players, func(i, j int) bool {
		return strings.ToLower(players[i]) < strings.ToLower(players[j])
	})

	rolls := make(map[string]int64, len(players))
	winner, loser := players[0], ""
	for _, p := range players {
		rolls[p] = s.roll(s.stake)
		if rolls[p] > rolls[winner] {
			winner = p
		}
	}
	// the loser is the lowest roll among everyone but the winner, so the two
	// are distinct even when every roll ties
	for _, p := range players {
		if p == winner {
			continue
		}
		if loser == "" || rolls[p] < rolls[loser] {
			loser = p
		}
	}

	entry := models.LedgerEntry{
		Debtor:   loser,
		Creditor: winner,
		Amount:   rolls[winner] - rolls[loser],
	}
	s.ledger = append(s.ledger, entry)
	s.collector.LedgerEntries.Inc()

	s.notify("Round settled",
		fmt.Sprintf("%s rolled %d, %s rolled %d. %s owes %s %d.",
			winner, rolls[winner], loser, rolls[loser],
			entry.Debtor, entry.Creditor, entry.Amount))

	return models.RoundResult{
		Stake:      s.stake,
		Winner:     winner,
		WinnerRoll: rolls[winner],
		Loser:      loser,
		LoserRoll:  rolls[loser],
	}
}

func (s *Session) finish() {
	s.setState(state.SessionSettled)
	s.notify("Session settled", s.ledgerSummary())

	s.onSettled(s)
	s.collector.SessionsActive.Dec()
	s.collector.SessionsDone.Inc()
	s.logger.Info("session settled",
		zap.String("session", s.ID),
		zap.String("channel", s.ChannelRef),
		zap.Int("ledger_entries", len(s.ledger)))
	close(s.done)
}

func (s *Session) ledgerSummary() string {
	if len(s.ledger) == 0 {
		return "No debts recorded."
	}
	lines := make([]string, 0, len(s.ledger))
	for _, entry := range s.ledger {
		lines = append(lines, fmt.Sprintf("%s owes %s %d", entry.Debtor, entry.Creditor, entry.Amount))
	}
	return strings.Join(lines, "\n")
}

func noticeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func (s *Session) notify(title, body string) {
	ctx, cancel := noticeContext()
	defer cancel()
	if err := s.gateway.SendNotice(ctx, s.ChannelRef, models.Notice{Title: title, Body: body}); err != nil {
		s.logger.Warn("failed to send session notice",
			zap.String("session", s.ID), zap.Error(err))
	}
}
