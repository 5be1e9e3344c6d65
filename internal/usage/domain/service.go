package domain

import (
	"context"
	"errors"
)

// Kind distinguishes the two metered message classes.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
)

// Service meters per-user daily usage and enforces the free-tier quotas.
// Premium users pass every check without being metered.
type Service interface {
	// TryConsume charges one message of the given kind against the daily
	// count quota. On denial the returned reason is a user-facing
	// message; no state is mutated.
	TryConsume(ctx context.Context, userID int64, kind Kind) (bool, string)

	// TryConsumeVolume charges amount (characters for text, seconds for
	// audio) against the per-message ceiling and the cumulative daily
	// ceiling, in that order.
	TryConsumeVolume(ctx context.Context, userID int64, kind Kind, amount int) (bool, string)

	// TryConsumeMessage admits one message of the given kind and size.
	// The per-message ceiling rejects outright without charging anything;
	// the daily count and volume quotas are then charged together, so a
	// denied message never burns a slot of either quota.
	TryConsumeMessage(ctx context.Context, userID int64, kind Kind, amount int) (bool, string)

	// Today returns the user's usage record for the current day. A zero
	// record is returned when the user has no activity yet.
	Today(ctx context.Context, userID int64) (UsageRecord, error)
}

var ErrInvalidKind = errors.New("invalid_usage_kind")
