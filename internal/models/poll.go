package models

import "time"

// PollRef locates a live vote on the messaging platform.
type PollRef struct {
	MessageRef string
	ChannelRef string
}

// LivePoll is the platform's view of a vote, fetched during reconciliation.
type LivePoll struct {
	Finalized bool
	ExpiresAt time.Time
}

// PollRecord is a persisted active vote, keyed by its lowercased question.
// Question uniqueness holds only among active polls; the record is deleted
// on finalization.
type PollRecord struct {
	Question   string
	MessageRef string
	ChannelRef string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (p PollRecord) Ref() PollRef {
	return PollRef{MessageRef: p.MessageRef, ChannelRef: p.ChannelRef}
}
