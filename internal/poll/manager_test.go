package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guildwarden/custom_errors"
	"guildwarden/internal/cache"
	"guildwarden/internal/gateway"
	"guildwarden/internal/metrics"
	"guildwarden/internal/models"
	"guildwarden/internal/scheduler"
)

type memPollStore struct {
	mu   sync.Mutex
	recs map[string]models.PollRecord
}

func newMemPollStore() *memPollStore {
	return &memPollStore{recs: make(map[string]models.PollRecord)}
}

func (m *memPollStore) Insert(ctx context.Context, rec models.PollRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.Question] = rec
	return nil
}

func (m *memPollStore) Find(ctx context.Context, question string) (*models.PollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[question]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (m *memPollStore) Remove(ctx context.Context, question string) (*models.PollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[question]
	if !ok {
		return nil, nil
	}
	delete(m.recs, question)
	return &rec, nil
}

func (m *memPollStore) All(ctx context.Context) ([]models.PollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PollRecord, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memPollStore) Close() error { return nil }

func (m *memPollStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

// memJobStore backs the real scheduler in tests.
type memJobStore struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]models.ScheduledJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[int64]models.ScheduledJob)}
}

func (m *memJobStore) Insert(ctx context.Context, handler string, fireAt time.Time, args ...any) (int64, error) {
	payload, _ := json.Marshal(args)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.jobs[m.nextID] = models.ScheduledJob{ID: m.nextID, Handler: handler, Payload: payload, FireAt: fireAt}
	return m.nextID, nil
}

func (m *memJobStore) Remove(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return false, nil
	}
	delete(m.jobs, id)
	return true, nil
}

func (m *memJobStore) All(ctx context.Context) ([]models.ScheduledJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ScheduledJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (m *memJobStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *memJobStore) CountPending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs), nil
}

func (m *memJobStore) Close() error { return nil }

func (m *memJobStore) pendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// mockMessenger serves the poll side of the gateway; role operations are
// unused here.
type mockMessenger struct {
	mu        sync.Mutex
	seq       int
	openErr   error
	endErr    error
	statusErr error
	// finalized marks message refs the platform reports as already closed
	finalized map[string]bool
	endCalls  int
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{finalized: make(map[string]bool)}
}

func (g *mockMessenger) SendNotice(ctx context.Context, channelRef string, notice models.Notice) error {
	return nil
}

func (g *mockMessenger) MemberRoles(ctx context.Context, subjectID string) ([]string, error) {
	return nil, nil
}

func (g *mockMessenger) ReplaceMemberRoles(ctx context.Context, subjectID string, roles []string) error {
	return nil
}

func (g *mockMessenger) OpenPoll(ctx context.Context, channelRef, question string, duration time.Duration, options []string) (models.PollRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.openErr != nil {
		return models.PollRef{}, g.openErr
	}
	g.seq++
	return models.PollRef{MessageRef: fmt.Sprintf("msg-%d", g.seq), ChannelRef: channelRef}, nil
}

func (g *mockMessenger) PollStatus(ctx context.Context, ref models.PollRef) (models.LivePoll, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return models.LivePoll{}, g.statusErr
	}
	return models.LivePoll{Finalized: g.finalized[ref.MessageRef]}, nil
}

func (g *mockMessenger) EndPoll(ctx context.Context, ref models.PollRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.endErr != nil {
		return g.endErr
	}
	g.endCalls++
	return nil
}

var _ gateway.Messenger = (*mockMessenger)(nil)

func newTestManager(t *testing.T, pollStore *memPollStore, messenger *mockMessenger) (*Manager, *memJobStore) {
	t.Helper()

	jobStore := newMemJobStore()
	sched := scheduler.New(jobStore, nil, metrics.NewCollector(), zap.NewNop(), 2, "")
	m := NewManager(pollStore, cache.NewMemoryPollCache(), messenger, sched, nil, metrics.NewCollector(), zap.NewNop())

	require.NoError(t, m.RegisterHandlers())
	require.NoError(t, sched.Recover(context.Background()))
	t.Cleanup(sched.Stop)

	return m, jobStore
}

func TestCreate_PersistsAndSchedulesFinalize(t *testing.T) {
	ctx := context.Background()
	pollStore := newMemPollStore()
	m, jobStore := newTestManager(t, pollStore, newMockMessenger())

	err := m.Create(ctx, "chan-1", "Raid on Friday?", time.Hour, []string{"yes", "no"}, "admin")
	require.NoError(t, err)

	rec, err := pollStore.Find(ctx, "raid on friday?")
	require.NoError(t, err)
	require.NotNil(t, rec, "record is keyed by the lowercased question")
	assert.Equal(t, "chan-1", rec.ChannelRef)
	assert.NotEmpty(t, rec.MessageRef)

	assert.Equal(t, 1, jobStore.pendingCount())
}

func TestCreate_TooManyOptions(t *testing.T) {
	m, _ := newTestManager(t, newMemPollStore(), newMockMessenger())

	options := make([]string, 11)
	for i := range options {
		options[i] = fmt.Sprintf("option %d", i)
	}

	err := m.Create(context.Background(), "chan-1", "q?", time.Hour, options, "admin")
	assert.True(t, custom_errors.IsValidation(err))
}

func TestCreate_NonPositiveDuration(t *testing.T) {
	m, _ := newTestManager(t, newMemPollStore(), newMockMessenger())

	err := m.Create(context.Background(), "chan-1", "q?", 0, []string{"yes"}, "admin")
	assert.True(t, custom_errors.IsValidation(err))
}

func TestCreate_DuplicateQuestionConflicts(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, newMemPollStore(), newMockMessenger())

	require.NoError(t, m.Create(ctx, "chan-1", "Raid on Friday?", time.Hour, []string{"yes"}, "admin"))

	// same question, different casing and channel
	err := m.Create(ctx, "chan-2", "RAID ON FRIDAY?", time.Hour, []string{"yes"}, "admin")
	assert.True(t, custom_errors.IsConflict(err))
}

func TestCreate_GatewayFailureLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	pollStore := newMemPollStore()
	messenger := newMockMessenger()
	messenger.openErr = assert.AnError

	m, jobStore := newTestManager(t, pollStore, messenger)

	err := m.Create(ctx, "chan-1", "q?", time.Hour, []string{"yes"}, "admin")
	assert.True(t, custom_errors.IsCollaborator(err))
	assert.Equal(t, 0, pollStore.count())
	assert.Equal(t, 0, jobStore.pendingCount())

	// the question is free again once the platform recovers
	messenger.openErr = nil
	assert.NoError(t, m.Create(ctx, "chan-1", "q?", time.Hour, []string{"yes"}, "admin"))
}

func TestFinalize_Idempotent(t *testing.T) {
	ctx := context.Background()
	pollStore := newMemPollStore()
	m, _ := newTestManager(t, pollStore, newMockMessenger())

	require.NoError(t, m.Create(ctx, "chan-1", "q?", time.Hour, []string{"yes"}, "admin"))

	require.NoError(t, m.Finalize(ctx, "q?"))
	require.NoError(t, m.Finalize(ctx, "q?"), "second finalize observes the no-op branch")
	assert.Equal(t, 0, pollStore.count())
}

func TestEnd_ClosesVoteEarly(t *testing.T) {
	ctx := context.Background()
	pollStore := newMemPollStore()
	messenger := newMockMessenger()
	m, _ := newTestManager(t, pollStore, messenger)

	require.NoError(t, m.Create(ctx, "chan-1", "q?", time.Hour, []string{"yes"}, "admin"))
	require.NoError(t, m.End(ctx, "Q?", "admin"))

	assert.Equal(t, 1, messenger.endCalls)
	assert.Equal(t, 0, pollStore.count())

	// ending an already-closed poll is a no-op
	require.NoError(t, m.End(ctx, "q?", "admin"))
	assert.Equal(t, 1, messenger.endCalls)
}

func TestEnd_GatewayFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	pollStore := newMemPollStore()
	messenger := newMockMessenger()
	m, _ := newTestManager(t, pollStore, messenger)

	require.NoError(t, m.Create(ctx, "chan-1", "q?", time.Hour, []string{"yes"}, "admin"))

	messenger.endErr = assert.AnError
	err := m.End(ctx, "q?", "admin")
	assert.True(t, custom_errors.IsCollaborator(err))
	assert.Equal(t, 1, pollStore.count(), "record survives a failed gateway call for retry")
}

func TestReconcile_SplitsExpiredFromLive(t *testing.T) {
	ctx := context.Background()
	pollStore := newMemPollStore()
	messenger := newMockMessenger()
	messenger.finalized["msg-dead"] = true

	require.NoError(t, pollStore.Insert(ctx, models.PollRecord{
		Question:   "closed during downtime?",
		MessageRef: "msg-dead",
		ChannelRef: "chan-1",
		ExpiresAt:  time.Now().Add(-time.Minute),
	}))
	require.NoError(t, pollStore.Insert(ctx, models.PollRecord{
		Question:   "still open?",
		MessageRef: "msg-live",
		ChannelRef: "chan-1",
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	m, jobStore := newTestManager(t, pollStore, messenger)

	require.NoError(t, m.Reconcile(ctx))

	// the closed poll is finalized immediately, the open one gets a fresh job
	assert.Equal(t, 1, pollStore.count())
	rec, err := pollStore.Find(ctx, "still open?")
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 1, jobStore.pendingCount())

	// the reseeded cache enforces uniqueness for the surviving poll
	createErr := m.Create(ctx, "chan-2", "Still Open?", time.Hour, []string{"yes"}, "admin")
	assert.True(t, custom_errors.IsConflict(createErr))
}

func TestActive_ListsOpenPolls(t *testing.T) {
	ctx := context.Background()
	pollStore := newMemPollStore()
	m, _ := newTestManager(t, pollStore, newMockMessenger())

	require.NoError(t, m.Create(ctx, "chan-1", "a?", time.Hour, []string{"yes"}, "admin"))
	require.NoError(t, m.Create(ctx, "chan-1", "b?", time.Hour, []string{"yes"}, "admin"))

	recs, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
