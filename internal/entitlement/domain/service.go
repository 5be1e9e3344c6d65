package domain

import (
	"context"
	"errors"
)

type Service interface {
	// IsPremium reports whether the user holds an unexpired entitlement.
	// Store failures read as "not premium" — this check fails closed.
	IsPremium(ctx context.Context, userID int64) bool
	Grant(ctx context.Context, userID int64, expiresOn string) error
	Revoke(ctx context.Context, userID int64) error
	Get(ctx context.Context, userID int64) (*Entitlement, error)
}

var (
	ErrInvalidUser = errors.New("invalid_user")
	ErrInvalidDate = errors.New("invalid_expiry_date")
	ErrNotFound    = errors.New("not_found")
)
