package models

import "time"

// Notice is an outward notification delivered through the messaging gateway.
type Notice struct {
	Title string
	Body  string
}

// AuditRecord is published to the audit queue for every sanction or vote
// lifecycle transition.
type AuditRecord struct {
	ID      string    `json:"id"`
	Action  string    `json:"action"`
	Subject string    `json:"subject"`
	Actor   string    `json:"actor,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}
