package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guildwarden/client"
	"guildwarden/client/test/mocks"
	"guildwarden/internal/models"
	"guildwarden/internal/ready"
)

func readyRegistry() *ready.Registry {
	r := ready.New("scheduler", "mutes", "polls", "sessions")
	for _, name := range []string{"scheduler", "mutes", "polls", "sessions"} {
		r.MarkReady(name)
	}
	return r
}

func newTestEngine(sanctions *mocks.MockSanctionManager, votes *mocks.MockVoteManager, sessions *mocks.MockSessionRunner, readiness *ready.Registry) *client.Engine {
	return client.NewEngine(sanctions, votes, sessions, readiness, zap.NewNop())
}

func TestEngine_RejectsCommandsUntilReady(t *testing.T) {
	ctx := context.Background()
	readiness := ready.New("scheduler", "mutes")
	readiness.MarkReady("scheduler")

	var applied bool
	sanctions := &mocks.MockSanctionManager{
		ApplyFunc: func(ctx context.Context, subjectID string, duration time.Duration, actor, reason string) error {
			applied = true
			return nil
		},
	}
	e := newTestEngine(sanctions, &mocks.MockVoteManager{}, &mocks.MockSessionRunner{}, readiness)

	assert.False(t, e.Ready())
	assert.ErrorIs(t, e.ApplySanction(ctx, "member-1", 0, "admin", "spam"), client.ErrInitializing)
	assert.ErrorIs(t, e.CreateVote(ctx, "chan-1", "q?", time.Hour, []string{"yes"}, "admin"), client.ErrInitializing)
	_, err := e.StartSession("chan-1", 1, 100, 0, time.Second)
	assert.ErrorIs(t, err, client.ErrInitializing)
	assert.False(t, applied, "no call reaches the manager before readiness")

	readiness.MarkReady("mutes")
	assert.True(t, e.Ready())
	require.NoError(t, e.ApplySanction(ctx, "member-1", 0, "admin", "spam"))
	assert.True(t, applied)
}

func TestEngine_ApplyAndLiftSanction(t *testing.T) {
	ctx := context.Background()

	var appliedSubject, liftedSubject string
	sanctions := &mocks.MockSanctionManager{
		ApplyFunc: func(ctx context.Context, subjectID string, duration time.Duration, actor, reason string) error {
			appliedSubject = subjectID
			return nil
		},
		RestoreFunc: func(ctx context.Context, subjectID, reason string) error {
			liftedSubject = subjectID
			return nil
		},
	}
	e := newTestEngine(sanctions, &mocks.MockVoteManager{}, &mocks.MockSessionRunner{}, readyRegistry())

	require.NoError(t, e.ApplySanction(ctx, "member-1", time.Hour, "admin", "spam"))
	require.NoError(t, e.LiftSanction(ctx, "member-1", "appeal accepted"))
	assert.Equal(t, "member-1", appliedSubject)
	assert.Equal(t, "member-1", liftedSubject)
}

func TestEngine_VoteErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("duplicate question")

	votes := &mocks.MockVoteManager{
		CreateFunc: func(ctx context.Context, channelRef, question string, duration time.Duration, options []string, actor string) error {
			return wantErr
		},
	}
	e := newTestEngine(&mocks.MockSanctionManager{}, votes, &mocks.MockSessionRunner{}, readyRegistry())

	err := e.CreateVote(ctx, "chan-1", "q?", time.Hour, []string{"yes"}, "admin")
	assert.ErrorIs(t, err, wantErr)
}

func TestEngine_ActiveVotes(t *testing.T) {
	ctx := context.Background()

	votes := &mocks.MockVoteManager{
		ActiveFunc: func(ctx context.Context) ([]models.PollRecord, error) {
			return []models.PollRecord{{Question: "a?"}, {Question: "b?"}}, nil
		},
	}
	e := newTestEngine(&mocks.MockSanctionManager{}, votes, &mocks.MockSessionRunner{}, readyRegistry())

	recs, err := e.ActiveVotes(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestEngine_SessionSignalsForwarded(t *testing.T) {
	var joined, left string
	sessions := &mocks.MockSessionRunner{
		JoinFunc: func(channelRef, participant string, sessionScope bool) {
			joined = participant
		},
		LeaveFunc: func(channelRef, participant string, sessionScope bool) {
			left = participant
		},
		ActiveFunc: func(channelRef string) bool { return channelRef == "chan-1" },
	}
	e := newTestEngine(&mocks.MockSanctionManager{}, &mocks.MockVoteManager{}, sessions, readyRegistry())

	e.JoinSession("chan-1", "alice", true)
	e.LeaveSession("chan-1", "bob", false)
	assert.Equal(t, "alice", joined)
	assert.Equal(t, "bob", left)
	assert.True(t, e.SessionActive("chan-1"))
	assert.False(t, e.SessionActive("chan-2"))
}
