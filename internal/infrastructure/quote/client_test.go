package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractPrice(t *testing.T) {
	cases := []struct {
		name string
		html string
		want float64
		ok   bool
	}{
		{
			"plain price",
			`<div class="YMlKec fxKbKc">1,234.55</div>`,
			1234.55, true,
		},
		{
			"rupee prefix",
			`<div class="YMlKec fxKbKc">₹2,870.10</div>`,
			2870.10, true,
		},
		{
			"marker absent",
			`<div class="other">99.0</div>`,
			0, false,
		},
		{
			"garbage value",
			`<div class="YMlKec fxKbKc">n/a</div>`,
			0, false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractPrice(tc.html)
			if ok != tc.ok || got != tc.want {
				t.Errorf("extractPrice = %v, %v; want %v, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/RELIANCE:NSE" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><div class="YMlKec fxKbKc">₹2,870.10</div></html>`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	price, err := c.FetchPrice(ctx, "RELIANCE")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if price != 2870.10 {
		t.Errorf("expected 2870.10, got %v", price)
	}

	if _, err := c.FetchPrice(ctx, "UNKNOWN"); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestFetchDailyCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("date") {
		case "2026-08-31":
			fmt.Fprint(w, `{"date":"2026-08-31","closes":{"RELIANCE":2870.5,"TCS":3100.0}}`)
		case "2026-08-30":
			http.NotFound(w, r) // no session that day
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	ctx := context.Background()

	closes, err := c.FetchDailyCloses(ctx, []string{"RELIANCE", "TCS"}, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDailyCloses failed: %v", err)
	}
	if closes["RELIANCE"] != 2870.5 || closes["TCS"] != 3100.0 {
		t.Errorf("unexpected closes: %v", closes)
	}

	// A 404 means no trading session, not an error.
	closes, err = c.FetchDailyCloses(ctx, []string{"RELIANCE"}, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected holiday to yield empty map, got error: %v", err)
	}
	if len(closes) != 0 {
		t.Errorf("expected empty closes for holiday, got %v", closes)
	}

	if _, err := c.FetchDailyCloses(ctx, []string{"RELIANCE"}, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Error("expected error on http 500")
	}

	unconfigured := NewClient("", "")
	if _, err := unconfigured.FetchDailyCloses(ctx, nil, time.Now()); err == nil {
		t.Error("expected error when history endpoint unset")
	}
}
