package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// maxLookbackDays bounds the walk back through weekends and market holidays
// when resolving the most recent trading day with close data.
const maxLookbackDays = 7

// RefCloseResolver computes each instrument's most recent trading-day close,
// refreshed once per calendar day. The trading calendar is implicit: weekends
// are skipped outright and holidays are detected by the source returning no
// data for a date, in which case the resolver walks back one day at a time.
// Not safe for concurrent use; only the refresh loop goroutine calls it.
type RefCloseResolver struct {
	source   port.QuoteSource
	universe *domain.Universe
	loc      *time.Location
	openHour int
	now      func() time.Time

	closes      map[int]float64
	refreshedOn string // YYYY-MM-DD in loc, empty until first resolve
}

func NewRefCloseResolver(source port.QuoteSource, universe *domain.Universe, loc *time.Location, openHour int) *RefCloseResolver {
	return &RefCloseResolver{
		source:   source,
		universe: universe,
		loc:      loc,
		openHour: openHour,
		now:      time.Now,
		closes:   make(map[int]float64),
	}
}

// Closes returns the current reference closes, refreshing them first when the
// daily gate allows: the stored date no longer matches today and the local
// market-open hour has passed. The first call always resolves, whatever the
// hour, so day-change math has a reference from the very first tick.
func (r *RefCloseResolver) Closes(ctx context.Context) map[int]float64 {
	now := r.now().In(r.loc)
	today := now.Format("2006-01-02")

	if r.refreshedOn == "" || (r.refreshedOn != today && now.Hour() >= r.openHour) {
		closes := r.resolve(ctx, now)
		if len(closes) > 0 {
			r.closes = closes
			r.refreshedOn = today
		} else if len(r.closes) == 0 {
			// Zeros read as unknown; refreshedOn stays empty so the next
			// tick retries immediately.
			r.closes = r.zeroCloses()
		}
	}
	return r.closes
}

// resolve walks back from yesterday (or the preceding Friday on weekends)
// until it finds a date the source has data for.
func (r *RefCloseResolver) resolve(ctx context.Context, now time.Time) map[int]float64 {
	target := previousTradingDay(now)

	symbols := make([]string, 0, r.universe.Size())
	for _, inst := range r.universe.Instruments() {
		symbols = append(symbols, inst.Symbol)
	}

	for i := 0; i < maxLookbackDays; i++ {
		rows, err := r.source.FetchDailyCloses(ctx, symbols, target)
		if err != nil {
			log.Warn().Err(err).Str("as_of", target.Format("2006-01-02")).Msg("reference close fetch failed")
			return nil
		}
		if len(rows) > 0 {
			return r.mapCloses(rows)
		}
		// No trading data for that date, assume holiday and step back.
		target = target.AddDate(0, 0, -1)
	}

	log.Warn().Msg("no trading day with close data within lookback window")
	return nil
}

func (r *RefCloseResolver) mapCloses(rows map[string]float64) map[int]float64 {
	out := make(map[int]float64, r.universe.Size())
	for _, inst := range r.universe.Instruments() {
		// Missing or non-positive closes default to 0: "unknown", never a price.
		if v, ok := rows[inst.Symbol]; ok && v > 0 {
			out[inst.ID] = v
		} else {
			out[inst.ID] = 0
		}
	}
	return out
}

func (r *RefCloseResolver) zeroCloses() map[int]float64 {
	out := make(map[int]float64, r.universe.Size())
	for _, inst := range r.universe.Instruments() {
		out[inst.ID] = 0
	}
	return out
}

// previousTradingDay returns the calendar day before now, skipping straight
// to Friday when now falls on a weekend.
func previousTradingDay(now time.Time) time.Time {
	d := now.AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
