package dates

import (
	"testing"
	"time"
)

func TestDayUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 UTC is already the next day in Jerusalem.
	utc := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	if got := Day(utc, loc); got != "2026-03-11" {
		t.Fatalf("got %q, want 2026-03-11", got)
	}
	if got := Day(utc, time.UTC); got != "2026-03-10" {
		t.Fatalf("got %q, want 2026-03-10", got)
	}
}

func TestDayKeysCompareChronologically(t *testing.T) {
	a := Day(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC), time.UTC)
	b := Day(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), time.UTC)
	if !(a < b) {
		t.Fatalf("day keys must order lexicographically: %q vs %q", a, b)
	}
}

func TestParseDayRoundTrip(t *testing.T) {
	loc := time.UTC
	parsed, err := ParseDay("2026-03-10", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if Day(parsed, loc) != "2026-03-10" {
		t.Fatalf("round trip lost the day: %v", parsed)
	}

	if _, err := ParseDay("10.03.2026", loc); err == nil {
		t.Fatal("wrong layout must be rejected")
	}
}
