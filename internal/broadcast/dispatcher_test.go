package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/content"
	subscriptiondomain "github.com/ahlabot/ahlabot/internal/subscription/domain"
)

type subsStub struct {
	mu         sync.Mutex
	recipients []int64
	delivered  map[string]string // "userID/kind" -> day
}

func newSubsStub(recipients ...int64) *subsStub {
	return &subsStub{recipients: recipients, delivered: make(map[string]string)}
}

func (s *subsStub) key(userID int64, kind subscriptiondomain.Kind) string {
	return fmt.Sprintf("%d/%s", userID, kind)
}

func (s *subsStub) Ensure(ctx context.Context, userID int64) (subscriptiondomain.Preferences, error) {
	return subscriptiondomain.Preferences{UserID: userID}, nil
}

func (s *subsStub) Toggle(ctx context.Context, userID int64, kind subscriptiondomain.Kind) (bool, error) {
	return false, nil
}

func (s *subsStub) Recipients(ctx context.Context, kind subscriptiondomain.Kind) ([]int64, error) {
	return s.recipients, nil
}

func (s *subsStub) LastDelivery(ctx context.Context, userID int64, kind subscriptiondomain.Kind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered[s.key(userID, kind)], nil
}

func (s *subsStub) MarkDelivered(ctx context.Context, userID int64, kind subscriptiondomain.Kind, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered[s.key(userID, kind)] = day
	return nil
}

type allocStub struct {
	mu      sync.Mutex
	cursors map[string]int
}

func newAllocStub() *allocStub {
	return &allocStub{cursors: make(map[string]int)}
}

func (a *allocStub) NextIndex(ctx context.Context, namespace string, listLength int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.cursors[namespace] % listLength
	a.cursors[namespace] = idx + 1
	return idx, nil
}

type delivererStub struct {
	mu      sync.Mutex
	sent    map[int64][]string
	failFor map[int64]bool
}

func newDelivererStub() *delivererStub {
	return &delivererStub{sent: make(map[int64][]string), failFor: make(map[int64]bool)}
}

func (d *delivererStub) Deliver(ctx context.Context, recipientID int64, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[recipientID] {
		return errors.New("send failed")
	}
	d.sent[recipientID] = append(d.sent[recipientID], text)
	return nil
}

func (d *delivererStub) count(recipientID int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent[recipientID])
}

func broadcastCatalog() *content.Catalog {
	phrases := []content.Record{
		{He: "שלום", Ru: "привет", Note: "универсальное приветствие"},
		{He: "תודה", Ru: "спасибо"},
	}
	facts := []content.Record{
		{He: "עובדה א", Ru: "факт об истории", Category: "history"},
		{He: "עובדה ב", Ru: "факт о еде", Category: "food"},
	}
	return content.NewCatalog(phrases, facts)
}

func setupDispatcher(subs *subsStub, deliverer *delivererStub) (*Dispatcher, *clock.FakeClock) {
	loc, _ := time.LoadLocation("Asia/Jerusalem")
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 8, 0, 0, 0, loc))

	d := New(DispatcherParam{
		Log:       zap.NewNop(),
		Clock:     fake,
		Location:  loc,
		Catalog:   broadcastCatalog(),
		Allocator: newAllocStub(),
		Subs:      subs,
		Deliverer: deliverer,
	})
	return d, fake
}

func TestRunPhraseDeliversToSubscribers(t *testing.T) {
	subs := newSubsStub(1, 2, 3)
	deliverer := newDelivererStub()
	d, _ := setupDispatcher(subs, deliverer)

	if err := d.RunPhrase(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, userID := range []int64{1, 2, 3} {
		if deliverer.count(userID) != 1 {
			t.Fatalf("user %d got %d messages, want 1", userID, deliverer.count(userID))
		}
	}
	text := deliverer.sent[1][0]
	if !strings.Contains(text, "שלום") || !strings.Contains(text, "привет") {
		t.Fatalf("rendered phrase missing content: %q", text)
	}
}

func TestRunPhraseSameDayIdempotent(t *testing.T) {
	subs := newSubsStub(1)
	deliverer := newDelivererStub()
	d, fake := setupDispatcher(subs, deliverer)
	ctx := context.Background()

	if err := d.RunPhrase(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := d.RunPhrase(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if deliverer.count(1) != 1 {
		t.Fatalf("same-day rerun must not resend, got %d sends", deliverer.count(1))
	}

	fake.Advance(24 * time.Hour)
	if err := d.RunPhrase(ctx); err != nil {
		t.Fatalf("next-day run: %v", err)
	}
	if deliverer.count(1) != 2 {
		t.Fatalf("next day should send again, got %d sends", deliverer.count(1))
	}
}

func TestRunPhraseFailedRecipientStaysEligible(t *testing.T) {
	subs := newSubsStub(1, 2)
	deliverer := newDelivererStub()
	deliverer.failFor[2] = true
	d, _ := setupDispatcher(subs, deliverer)
	ctx := context.Background()

	if err := d.RunPhrase(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if deliverer.count(1) != 1 {
		t.Fatal("healthy recipient must still be served")
	}

	// The failed recipient has no marker and picks up the retry run.
	deliverer.failFor[2] = false
	if err := d.RunPhrase(ctx); err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if deliverer.count(2) != 1 {
		t.Fatalf("failed recipient should get the retry, got %d", deliverer.count(2))
	}
	if deliverer.count(1) != 1 {
		t.Fatalf("already-served recipient must be skipped, got %d", deliverer.count(1))
	}
}

func TestRunQuizReminderDeliversAndStaysIdempotent(t *testing.T) {
	subs := newSubsStub(1, 2)
	deliverer := newDelivererStub()
	d, _ := setupDispatcher(subs, deliverer)
	ctx := context.Background()

	if err := d.RunQuizReminder(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := d.RunQuizReminder(ctx); err != nil {
		t.Fatalf("rerun: %v", err)
	}

	for _, userID := range []int64{1, 2} {
		if deliverer.count(userID) != 1 {
			t.Fatalf("user %d got %d reminders, want 1", userID, deliverer.count(userID))
		}
	}
	if !strings.Contains(deliverer.sent[1][0], "/quiz") {
		t.Fatalf("reminder should point at /quiz: %q", deliverer.sent[1][0])
	}
}

func TestRunFactRotatesCategories(t *testing.T) {
	subs := newSubsStub(1)
	deliverer := newDelivererStub()
	d, fake := setupDispatcher(subs, deliverer)
	ctx := context.Background()

	var seen []string
	for i := 0; i < 2; i++ {
		if err := d.RunFact(ctx); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		fake.Advance(24 * time.Hour)
	}
	for _, text := range deliverer.sent[1] {
		seen = append(seen, text)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 fact deliveries, got %d", len(seen))
	}
	if seen[0] == seen[1] {
		t.Fatal("consecutive facts should rotate, got the same text twice")
	}
}
