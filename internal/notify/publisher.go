package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"guildwarden/internal/models"
)

type Publisher interface {
	Publish(queue string, message []byte) error
	Close() error
}

// Auditor emits one audit record per lifecycle transition (mute applied,
// mute lifted, poll opened, poll closed). Publishing is best effort: a broker
// failure is logged and never blocks the operation that triggered it.
type Auditor struct {
	publisher Publisher
	queue     string
	logger    *zap.Logger
}

func NewAuditor(publisher Publisher, queue string, logger *zap.Logger) *Auditor {
	return &Auditor{
		publisher: publisher,
		queue:     queue,
		logger:    logger,
	}
}

func (a *Auditor) Record(action, subject, actor, reason string) {
	if a == nil || a.publisher == nil {
		return
	}

	rec := models.AuditRecord{
		ID:      uuid.NewString(),
		Action:  action,
		Subject: subject,
		Actor:   actor,
		Reason:  reason,
		At:      time.Now().UTC(),
	}

	body, err := json.Marshal(rec)
	if err != nil {
		a.logger.Error("failed to marshal audit record", zap.Error(err))
		return
	}

	if err := a.publisher.Publish(a.queue, body); err != nil {
		a.logger.Warn("failed to publish audit record",
			zap.String("action", action),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
