package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Ensure returns the user's preferences, creating the default row on
	// first interaction.
	Ensure(ctx context.Context, userID int64) (Preferences, error)

	// Toggle flips the subscription flag for kind and returns the new value.
	Toggle(ctx context.Context, userID int64, kind Kind) (bool, error)

	// Recipients lists the user IDs subscribed to kind.
	Recipients(ctx context.Context, kind Kind) ([]int64, error)

	// LastDelivery returns the day the user last received kind, empty when never.
	LastDelivery(ctx context.Context, userID int64, kind Kind) (string, error)

	// MarkDelivered records that kind reached the user on day.
	MarkDelivered(ctx context.Context, userID int64, kind Kind, day string) error
}

var (
	ErrInvalidUser = errors.New("invalid_user")
	ErrInvalidKind = errors.New("invalid_broadcast_kind")
)
