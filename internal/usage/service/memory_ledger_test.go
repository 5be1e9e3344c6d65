package service

import (
	"testing"

	"github.com/ahlabot/ahlabot/internal/usage/domain"
)

func TestMemoryLedgerCountLimit(t *testing.T) {
	ledger := newMemoryLedger()

	for i := 0; i < 3; i++ {
		if !ledger.consumeCount(1, "2026-03-10", domain.KindText, 3) {
			t.Fatalf("message %d denied", i+1)
		}
	}
	if ledger.consumeCount(1, "2026-03-10", domain.KindText, 3) {
		t.Fatal("fourth message should be denied")
	}

	// Other users and kinds are unaffected.
	if !ledger.consumeCount(2, "2026-03-10", domain.KindText, 3) {
		t.Fatal("other user should be unaffected")
	}
	if !ledger.consumeCount(1, "2026-03-10", domain.KindAudio, 3) {
		t.Fatal("audio quota should be independent")
	}
}

func TestMemoryLedgerDayRollover(t *testing.T) {
	ledger := newMemoryLedger()

	for i := 0; i < 3; i++ {
		ledger.consumeCount(1, "2026-03-10", domain.KindText, 3)
	}
	if ledger.consumeCount(1, "2026-03-10", domain.KindText, 3) {
		t.Fatal("expected denial before rollover")
	}

	if !ledger.consumeCount(1, "2026-03-11", domain.KindText, 3) {
		t.Fatal("new day should reset the in-memory counts")
	}
}

func TestMemoryLedgerMessageAtomic(t *testing.T) {
	ledger := newMemoryLedger()

	for i := 0; i < 3; i++ {
		ok, _, _ := ledger.consumeMessage(1, "2026-03-10", domain.KindText, 100, 3, 2000)
		if !ok {
			t.Fatalf("message %d denied", i+1)
		}
	}

	// Count quota hit: neither counter moves.
	ok, countHit, _ := ledger.consumeMessage(1, "2026-03-10", domain.KindText, 100, 3, 2000)
	if ok || !countHit {
		t.Fatalf("got ok=%v countHit=%v", ok, countHit)
	}

	// Volume quota hit for a fresh user: the message slot is not charged.
	ok, countHit, remaining := ledger.consumeMessage(2, "2026-03-10", domain.KindText, 2100, 3, 2000)
	if ok || countHit {
		t.Fatalf("got ok=%v countHit=%v", ok, countHit)
	}
	if remaining != 2000 {
		t.Fatalf("denial must report untouched budget, got %d", remaining)
	}
	if ok, _, _ := ledger.consumeMessage(2, "2026-03-10", domain.KindText, 100, 1, 2000); !ok {
		t.Fatal("denied volume must not have burned the only count slot")
	}
}

func TestMemoryLedgerVolume(t *testing.T) {
	ledger := newMemoryLedger()

	ok, remaining := ledger.consumeVolume(1, "2026-03-10", domain.KindText, 1500, 2000)
	if !ok || remaining != 500 {
		t.Fatalf("got ok=%v remaining=%d", ok, remaining)
	}

	ok, remaining = ledger.consumeVolume(1, "2026-03-10", domain.KindText, 600, 2000)
	if ok {
		t.Fatal("overdraft should be denied")
	}
	if remaining != 500 {
		t.Fatalf("denial must report the remaining budget, got %d", remaining)
	}
}
