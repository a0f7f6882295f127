package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// Engine drives the refresh loop: resolve reference closes, fetch prices,
// publish the new snapshot set, run a matching pass and fan the tick out.
// Start and Stop are idempotent; stopping lets the in-flight tick finish
// and joins the loop goroutine.
type Engine struct {
	fetcher   *Fetcher
	cache     *QuoteCache
	refClose  *RefCloseResolver
	matcher   *Matcher
	publisher port.Publisher
	mirror    port.PriceMirror // nil when disabled
	universe  *domain.Universe
	interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type EngineDeps struct {
	Fetcher   *Fetcher
	Cache     *QuoteCache
	RefClose  *RefCloseResolver
	Matcher   *Matcher
	Publisher port.Publisher
	Mirror    port.PriceMirror
	Universe  *domain.Universe
	Interval  time.Duration
}

func NewEngine(deps EngineDeps) *Engine {
	if deps.Interval <= 0 {
		deps.Interval = 2 * time.Second
	}
	return &Engine{
		fetcher:   deps.Fetcher,
		cache:     deps.Cache,
		refClose:  deps.RefClose,
		matcher:   deps.Matcher,
		publisher: deps.Publisher,
		mirror:    deps.Mirror,
		universe:  deps.Universe,
		interval:  deps.Interval,
	}
}

// Start begins ticking in the background. Calling Start while running is a
// no-op, so two starts never yield two loops.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true

	e.wg.Add(1)
	go e.run(loopCtx)

	log.Info().
		Dur("interval", e.interval).
		Int("universe", e.universe.Size()).
		Msg("refresh loop started")
}

// Stop prevents new ticks from starting and waits for the current one to
// finish. Stopping an already stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	log.Info().Msg("refresh loop stopped")
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	// First tick immediately rather than one interval in.
	e.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick is one full pipeline pass. Individual fetch, execution and broadcast
// failures are handled locally; nothing here may kill the loop.
func (e *Engine) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()

	closes := e.refClose.Closes(ctx)
	prices := e.fetcher.FetchAll(ctx)
	if len(prices) == 0 {
		log.Warn().Msg("no prices fetched this tick, keeping previous snapshot")
		return
	}

	quotes := make(map[int]domain.Quote, len(prices))
	for id, price := range prices {
		symbol, _ := e.universe.Symbol(id)
		prev := closes[id]
		quotes[id] = domain.Quote{
			InstrumentID: id,
			Symbol:       symbol,
			Price:        price,
			PrevClose:    prev,
			DayChangePct: domain.DayChangePct(price, prev),
		}
	}

	e.cache.ReplaceAll(quotes)

	if e.mirror != nil {
		all := make([]domain.Quote, 0, len(quotes))
		for _, q := range quotes {
			all = append(all, q)
		}
		if err := e.mirror.UpsertQuotes(ctx, all, start.UnixMilli()); err != nil {
			log.Warn().Err(err).Msg("price mirror update failed")
		}
	}

	e.matcher.Run(ctx, quotes)

	if payload, err := json.Marshal(UpdateMessage{Type: "update", Data: quotes}); err == nil {
		e.publisher.Broadcast(payload)
	}

	log.Debug().
		Int("fetched", len(prices)).
		Dur("elapsed", time.Since(start)).
		Msg("tick complete")
}

// UpdateMessage is the frame broadcast to every subscriber each tick.
type UpdateMessage struct {
	Type string               `json:"type"`
	Data map[int]domain.Quote `json:"data"`
}
