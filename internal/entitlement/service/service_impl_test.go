package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/entitlement/domain"
)

func setupService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Entitlement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, loc))

	svc := New(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    fake,
		Location: loc,
	})
	return svc, fake
}

func TestGrantAndExpiryBoundary(t *testing.T) {
	svc, fake := setupService(t)
	ctx := context.Background()

	if err := svc.Grant(ctx, 42, "2026-03-15"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if !svc.IsPremium(ctx, 42) {
		t.Fatal("expected premium right after grant")
	}

	// Premium holds through the whole expiry day.
	fake.Set(time.Date(2026, 3, 15, 23, 59, 0, 0, fake.Now().Location()))
	if !svc.IsPremium(ctx, 42) {
		t.Fatal("expected premium on the expiry day itself")
	}

	// And lapses the day after, with no write happening.
	fake.Set(time.Date(2026, 3, 16, 0, 1, 0, 0, fake.Now().Location()))
	if svc.IsPremium(ctx, 42) {
		t.Fatal("expected free tier the day after expiry")
	}

	ent, err := svc.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ent.Active {
		t.Fatal("expiry must not rewrite the stored row")
	}
}

func TestGrantUpsertExtends(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if err := svc.Grant(ctx, 42, "2026-03-15"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := svc.Grant(ctx, 42, "2026-06-15"); err != nil {
		t.Fatalf("re-grant: %v", err)
	}

	ent, err := svc.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ent.ExpiresOn != "2026-06-15" {
		t.Fatalf("expected extended expiry, got %s", ent.ExpiresOn)
	}
}

func TestGrantOpenEnded(t *testing.T) {
	svc, fake := setupService(t)
	ctx := context.Background()

	if err := svc.Grant(ctx, 42, ""); err != nil {
		t.Fatalf("grant: %v", err)
	}

	fake.Advance(365 * 24 * time.Hour)
	if !svc.IsPremium(ctx, 42) {
		t.Fatal("open-ended grant should not expire")
	}
}

func TestGrantValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if err := svc.Grant(ctx, 0, "2026-03-15"); !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("zero user: got %v", err)
	}
	if err := svc.Grant(ctx, 42, "15.03.2026"); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("bad date: got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if err := svc.Grant(ctx, 42, "2099-01-01"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := svc.Revoke(ctx, 42); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if svc.IsPremium(ctx, 42) {
		t.Fatal("revoked user must read as free tier")
	}
}

func TestIsPremiumUnknownUser(t *testing.T) {
	svc, _ := setupService(t)

	if svc.IsPremium(context.Background(), 999) {
		t.Fatal("unknown user must not be premium")
	}
}
