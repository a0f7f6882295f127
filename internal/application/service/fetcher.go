package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// Fetcher fans the quote source out across the instrument universe with a
// bounded worker pool. A failed or timed-out fetch drops that instrument
// from the result; it never fails the batch.
type Fetcher struct {
	source   port.QuoteSource
	universe *domain.Universe
	workers  int
	timeout  time.Duration
}

func NewFetcher(source port.QuoteSource, universe *domain.Universe, workers int, timeout time.Duration) *Fetcher {
	if workers <= 0 {
		workers = 10
	}
	return &Fetcher{source: source, universe: universe, workers: workers, timeout: timeout}
}

// FetchAll returns instrument id -> raw price for every instrument whose
// fetch succeeded. Completion order is irrelevant; results are collected
// under a lock.
func (f *Fetcher) FetchAll(ctx context.Context) map[int]float64 {
	instruments := f.universe.Instruments()

	sem := make(chan struct{}, f.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[int]float64, len(instruments))

	for _, inst := range instruments {
		wg.Add(1)
		go func(inst domain.Instrument) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			price, err := f.source.FetchPrice(reqCtx, inst.Symbol)
			if err != nil {
				log.Debug().Str("symbol", inst.Symbol).Err(err).Msg("price fetch failed")
				return
			}

			mu.Lock()
			results[inst.ID] = price
			mu.Unlock()
		}(inst)
	}

	wg.Wait()
	return results
}
