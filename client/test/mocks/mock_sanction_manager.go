package mocks

import (
	"context"
	"time"

	"guildwarden/internal/models"
)

// MockSanctionManager is a mock implementation of client.SanctionManager for testing.
type MockSanctionManager struct {
	ApplyFunc   func(ctx context.Context, subjectID string, duration time.Duration, actor, reason string) error
	RestoreFunc func(ctx context.Context, subjectID, reason string) error
	ActiveFunc  func(ctx context.Context) ([]models.MuteRecord, error)
}

func (m *MockSanctionManager) Apply(ctx context.Context, subjectID string, duration time.Duration, actor, reason string) error {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, subjectID, duration, actor, reason)
	}
	return nil
}

func (m *MockSanctionManager) Restore(ctx context.Context, subjectID, reason string) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, subjectID, reason)
	}
	return nil
}

func (m *MockSanctionManager) Active(ctx context.Context) ([]models.MuteRecord, error) {
	if m.ActiveFunc != nil {
		return m.ActiveFunc(ctx)
	}
	return []models.MuteRecord{}, nil
}
