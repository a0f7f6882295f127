package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockpulse/internal/domain"
)

func newTestResolver(source *mockQuoteSource, now time.Time) *RefCloseResolver {
	universe := domain.NewUniverse([]string{"RELIANCE", "TCS"})
	r := NewRefCloseResolver(source, universe, time.UTC, 9)
	r.now = func() time.Time { return now }
	return r
}

func TestRefCloseUsesYesterdayOnWeekday(t *testing.T) {
	source := newMockQuoteSource()
	source.closes["2026-08-31"] = map[string]float64{"RELIANCE": 200.0, "TCS": 3000.0}

	// Tuesday 2026-09-01 10:00.
	r := newTestResolver(source, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	closes := r.Closes(context.Background())

	if closes[1] != 200.0 || closes[2] != 3000.0 {
		t.Errorf("unexpected closes: %v", closes)
	}
}

func TestRefCloseWeekendWalksBackToFriday(t *testing.T) {
	source := newMockQuoteSource()
	source.closes["2026-09-04"] = map[string]float64{"RELIANCE": 150.0, "TCS": 2900.0} // Friday

	// Sunday 2026-09-06 11:00.
	r := newTestResolver(source, time.Date(2026, 9, 6, 11, 0, 0, 0, time.UTC))
	closes := r.Closes(context.Background())

	if closes[1] != 150.0 {
		t.Errorf("expected Friday close 150.0, got %v", closes[1])
	}
	if source.closeCount() != 1 {
		t.Errorf("expected a single batch fetch, got %d", source.closeCount())
	}
}

func TestRefCloseHolidayWalkback(t *testing.T) {
	source := newMockQuoteSource()
	// Monday 2026-08-31 is a holiday (no data); Friday 2026-08-28 has data.
	source.closes["2026-08-28"] = map[string]float64{"RELIANCE": 180.0, "TCS": 2800.0}

	// Tuesday 2026-09-01 10:00: walk 31 -> 30(Sun) -> 29(Sat) -> 28.
	r := newTestResolver(source, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	closes := r.Closes(context.Background())

	if closes[1] != 180.0 {
		t.Errorf("expected holiday walk-back to Friday close 180.0, got %v", closes[1])
	}
}

func TestRefCloseFetchFailureDefaultsToZero(t *testing.T) {
	source := newMockQuoteSource()
	source.closesErr = errors.New("provider down")

	r := newTestResolver(source, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	closes := r.Closes(context.Background())

	if closes[1] != 0 || closes[2] != 0 {
		t.Errorf("expected zero (unknown) closes on failure, got %v", closes)
	}

	// Recovery on a later tick the same day: first resolve never latched a
	// date, so the next call retries.
	source.mu.Lock()
	source.closesErr = nil
	source.closes["2026-08-31"] = map[string]float64{"RELIANCE": 210.0, "TCS": 3100.0}
	source.mu.Unlock()

	closes = r.Closes(context.Background())
	if closes[1] != 210.0 {
		t.Errorf("expected retry to recover closes, got %v", closes)
	}
}

func TestRefCloseMissingSymbolDefaultsToZero(t *testing.T) {
	source := newMockQuoteSource()
	source.closes["2026-08-31"] = map[string]float64{"RELIANCE": 200.0} // TCS absent

	r := newTestResolver(source, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	closes := r.Closes(context.Background())

	if closes[2] != 0 {
		t.Errorf("missing symbol should default to 0, got %v", closes[2])
	}
}

func TestRefCloseDailyGate(t *testing.T) {
	source := newMockQuoteSource()
	source.closes["2026-08-31"] = map[string]float64{"RELIANCE": 200.0, "TCS": 3000.0}
	source.closes["2026-09-01"] = map[string]float64{"RELIANCE": 205.0, "TCS": 3050.0}

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	r := newTestResolver(source, now)

	r.Closes(context.Background())
	r.Closes(context.Background())
	if source.closeCount() != 1 {
		t.Fatalf("same-day ticks refetched closes: %d calls", source.closeCount())
	}

	// Next day before market open: still serves yesterday's reference.
	r.now = func() time.Time { return time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC) }
	closes := r.Closes(context.Background())
	if source.closeCount() != 1 {
		t.Errorf("refreshed before market open hour")
	}
	if closes[1] != 200.0 {
		t.Errorf("expected previous reference before open, got %v", closes[1])
	}

	// After the open hour the new session's reference is resolved.
	r.now = func() time.Time { return time.Date(2026, 9, 2, 9, 30, 0, 0, time.UTC) }
	closes = r.Closes(context.Background())
	if source.closeCount() != 2 {
		t.Errorf("expected refresh after open hour, calls=%d", source.closeCount())
	}
	if closes[1] != 205.0 {
		t.Errorf("expected new reference close 205.0, got %v", closes[1])
	}
}

func TestPreviousTradingDay(t *testing.T) {
	cases := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), "2026-08-31"},  // Tue -> Mon
		{time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC), "2026-08-28"}, // Mon -> Fri
		{time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC), "2026-09-04"},  // Sat -> Fri
		{time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC), "2026-09-04"},  // Sun -> Fri
	}
	for _, tc := range cases {
		if got := previousTradingDay(tc.now).Format("2006-01-02"); got != tc.want {
			t.Errorf("previousTradingDay(%s) = %s, want %s", tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}
