package mocks

import (
	"context"
	"time"

	"guildwarden/internal/models"
)

// MockVoteManager is a mock implementation of client.VoteManager for testing.
type MockVoteManager struct {
	CreateFunc func(ctx context.Context, channelRef, question string, duration time.Duration, options []string, actor string) error
	EndFunc    func(ctx context.Context, question, actor string) error
	ActiveFunc func(ctx context.Context) ([]models.PollRecord, error)
}

func (m *MockVoteManager) Create(ctx context.Context, channelRef, question string, duration time.Duration, options []string, actor string) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, channelRef, question, duration, options, actor)
	}
	return nil
}

func (m *MockVoteManager) End(ctx context.Context, question, actor string) error {
	if m.EndFunc != nil {
		return m.EndFunc(ctx, question, actor)
	}
	return nil
}

func (m *MockVoteManager) Active(ctx context.Context) ([]models.PollRecord, error) {
	if m.ActiveFunc != nil {
		return m.ActiveFunc(ctx)
	}
	return []models.PollRecord{}, nil
}
