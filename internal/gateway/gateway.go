// Package gateway declares the messaging-platform collaborator the engine
// talks to. The core has no network surface of its own; everything outward
// goes through these calls.
package gateway

import (
	"context"
	"time"

	"guildwarden/internal/models"
)

type Messenger interface {
	// SendNotice delivers a notification to a channel.
	SendNotice(ctx context.Context, channelRef string, notice models.Notice) error

	// MemberRoles returns the subject's current role set.
	MemberRoles(ctx context.Context, subjectID string) ([]string, error)

	// ReplaceMemberRoles swaps the subject's role set atomically.
	ReplaceMemberRoles(ctx context.Context, subjectID string, roles []string) error

	// OpenPoll opens a timed vote and returns the platform reference for it.
	OpenPoll(ctx context.Context, channelRef, question string, duration time.Duration, options []string) (models.PollRef, error)

	// PollStatus fetches the live state of a vote. The platform may report
	// it finalized already, e.g. when the expiry passed during downtime.
	PollStatus(ctx context.Context, ref models.PollRef) (models.LivePoll, error)

	// EndPoll closes a vote before its scheduled expiry.
	EndPoll(ctx context.Context, ref models.PollRef) error
}
