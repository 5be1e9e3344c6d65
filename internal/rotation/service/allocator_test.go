package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/rotation/domain"
)

func setupAllocator(t *testing.T) (domain.Allocator, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.AutoMigrate(&domain.Cursor{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	alloc := New(AllocatorParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)),
	})
	return alloc, db
}

func TestNextIndexWrapsAround(t *testing.T) {
	alloc, _ := setupAllocator(t)
	ctx := context.Background()

	want := []int{0, 1, 2, 3, 4, 0}
	for i, expected := range want {
		got, err := alloc.NextIndex(ctx, "phrases", 5)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != expected {
			t.Fatalf("call %d: got index %d, want %d", i, got, expected)
		}
	}
}

func TestNextIndexSurvivesRestart(t *testing.T) {
	alloc, db := setupAllocator(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := alloc.NextIndex(ctx, "phrases", 5); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	// A fresh allocator over the same database picks up where the old
	// one stopped.
	fresh := New(AllocatorParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)),
	})
	got, err := fresh.NextIndex(ctx, "phrases", 5)
	if err != nil {
		t.Fatalf("after restart: %v", err)
	}
	if got != 3 {
		t.Fatalf("got index %d after restart, want 3", got)
	}
}

func TestNextIndexShrunkList(t *testing.T) {
	alloc, _ := setupAllocator(t)
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		if _, err := alloc.NextIndex(ctx, "facts", 10); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	// The list shrank: the next index must still land in range.
	got, err := alloc.NextIndex(ctx, "facts", 3)
	if err != nil {
		t.Fatalf("shrunk list: %v", err)
	}
	if got < 0 || got >= 3 {
		t.Fatalf("index %d out of range for list of 3", got)
	}
}

func TestNextIndexNamespacesAreIndependent(t *testing.T) {
	alloc, _ := setupAllocator(t)
	ctx := context.Background()

	if _, err := alloc.NextIndex(ctx, "phrases", 5); err != nil {
		t.Fatalf("phrases: %v", err)
	}
	if _, err := alloc.NextIndex(ctx, "phrases", 5); err != nil {
		t.Fatalf("phrases: %v", err)
	}

	got, err := alloc.NextIndex(ctx, "facts:history", 5)
	if err != nil {
		t.Fatalf("facts: %v", err)
	}
	if got != 0 {
		t.Fatalf("fresh namespace should start at 0, got %d", got)
	}
}

func TestNextIndexValidation(t *testing.T) {
	alloc, _ := setupAllocator(t)
	ctx := context.Background()

	if _, err := alloc.NextIndex(ctx, "  ", 5); err != domain.ErrInvalidNamespace {
		t.Fatalf("blank namespace: got %v", err)
	}
	if _, err := alloc.NextIndex(ctx, "phrases", 0); err != domain.ErrEmptyList {
		t.Fatalf("empty list: got %v", err)
	}
}

func TestNextIndexConcurrentUnique(t *testing.T) {
	alloc, _ := setupAllocator(t)
	ctx := context.Background()

	const workers = 8
	results := make([]int, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot], errs[slot] = alloc.NextIndex(ctx, "phrases", 100)
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, workers)
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if seen[results[i]] {
			t.Fatalf("index %d allocated twice", results[i])
		}
		seen[results[i]] = true
	}
}
