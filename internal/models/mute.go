package models

import "time"

// MuteRecord holds the role set a subject had before the sanction was
// applied. At most one active record exists per subject; deleting the record
// is the single source of truth for "already restored".
type MuteRecord struct {
	SubjectID    string
	RoleSnapshot []string
	ExpiresAt    *time.Time // nil means indefinite
	CreatedAt    time.Time
}
