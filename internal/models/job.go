package models

import (
	"encoding/json"
	"time"
)

// ScheduledJob is a persisted one-shot job. The row is deleted when the job
// is claimed for firing, so a restart re-arms only jobs that never ran.
type ScheduledJob struct {
	ID        int64
	Handler   string
	Payload   json.RawMessage
	FireAt    time.Time
	CreatedAt time.Time
}
