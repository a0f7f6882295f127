package domain

import "math"

// Quote is one instrument's snapshot for a single refresh tick.
type Quote struct {
	InstrumentID int     `json:"stock_id"`
	Symbol       string  `json:"name"`
	Price        float64 `json:"price"`
	PrevClose    float64 `json:"prev_close"`
	DayChangePct float64 `json:"day_change"`
}

// DayChangePct computes the day-over-day percentage move, rounded to two
// decimals. A prevClose of 0 means the reference close is unknown, so the
// change is reported as 0 rather than a bogus number.
func DayChangePct(price, prevClose float64) float64 {
	if prevClose <= 0 {
		return 0
	}
	pct := (price - prevClose) / prevClose * 100
	return math.Round(pct*100) / 100
}
