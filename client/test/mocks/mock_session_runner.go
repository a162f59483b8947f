package mocks

import (
	"time"

	"guildwarden/internal/session"
)

// MockSessionRunner is a mock implementation of client.SessionRunner for testing.
type MockSessionRunner struct {
	StartFunc  func(channelRef string, rounds int, stake, increment int64, signupWindow time.Duration) (*session.Session, error)
	JoinFunc   func(channelRef, participant string, sessionScope bool)
	LeaveFunc  func(channelRef, participant string, sessionScope bool)
	ActiveFunc func(channelRef string) bool
}

func (m *MockSessionRunner) Start(channelRef string, rounds int, stake, increment int64, signupWindow time.Duration) (*session.Session, error) {
	if m.StartFunc != nil {
		return m.StartFunc(channelRef, rounds, stake, increment, signupWindow)
	}
	return nil, nil
}

func (m *MockSessionRunner) Join(channelRef, participant string, sessionScope bool) {
	if m.JoinFunc != nil {
		m.JoinFunc(channelRef, participant, sessionScope)
	}
}

func (m *MockSessionRunner) Leave(channelRef, participant string, sessionScope bool) {
	if m.LeaveFunc != nil {
		m.LeaveFunc(channelRef, participant, sessionScope)
	}
}

func (m *MockSessionRunner) Active(channelRef string) bool {
	if m.ActiveFunc != nil {
		return m.ActiveFunc(channelRef)
	}
	return false
}
