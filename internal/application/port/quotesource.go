package port

import (
	"context"
	"time"
)

// QuoteSource is the external market data provider.
type QuoteSource interface {
	// FetchPrice returns one instrument's current price. Callers bound the
	// request with the context deadline.
	FetchPrice(ctx context.Context, symbol string) (float64, error)

	// FetchDailyCloses returns the closing prices for the given symbols on
	// asOf. Symbols with no data for that date are absent from the result.
	FetchDailyCloses(ctx context.Context, symbols []string, asOf time.Time) (map[string]float64, error)
}
