package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guildwarden/internal/models"
)

// mockPublisher is a minimal implementation of Publisher for testing.
type mockPublisher struct {
	publishErr error
	queue      string
	messages   [][]byte
}

func (m *mockPublisher) Publish(queue string, message []byte) error {
	m.queue = queue
	m.messages = append(m.messages, message)
	return m.publishErr
}

func (m *mockPublisher) Close() error { return nil }

func TestAuditor_Record(t *testing.T) {
	pub := &mockPublisher{}
	auditor := NewAuditor(pub, "audit_queue", zap.NewNop())

	auditor.Record("mute", "member-1", "admin", "spam")

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "audit_queue", pub.queue)

	var rec models.AuditRecord
	require.NoError(t, json.Unmarshal(pub.messages[0], &rec))
	assert.Equal(t, "mute", rec.Action)
	assert.Equal(t, "member-1", rec.Subject)
	assert.Equal(t, "admin", rec.Actor)
	assert.Equal(t, "spam", rec.Reason)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.At.IsZero())
}

func TestAuditor_Record_PublishError(t *testing.T) {
	pub := &mockPublisher{publishErr: assert.AnError}
	auditor := NewAuditor(pub, "audit_queue", zap.NewNop())

	// best effort: a broker failure must not panic or surface
	auditor.Record("unmute", "member-1", "", "expired")
	assert.Len(t, pub.messages, 1)
}

func TestAuditor_NilPublisher(t *testing.T) {
	auditor := NewAuditor(nil, "audit_queue", zap.NewNop())
	auditor.Record("mute", "member-1", "admin", "spam")

	var nilAuditor *Auditor
	nilAuditor.Record("mute", "member-1", "admin", "spam")
}
