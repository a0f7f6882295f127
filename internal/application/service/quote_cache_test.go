package service

import (
	"testing"

	"stockpulse/internal/domain"
)

func TestQuoteCacheReplaceAllIsWholesale(t *testing.T) {
	cache := NewQuoteCache()

	cache.ReplaceAll(map[int]domain.Quote{
		1: {InstrumentID: 1, Price: 100},
		2: {InstrumentID: 2, Price: 200},
	})

	// Instrument 2 fails to fetch next tick: it must vanish, not go stale.
	cache.ReplaceAll(map[int]domain.Quote{
		1: {InstrumentID: 1, Price: 101},
	})

	q, ok := cache.Get(1)
	if !ok || q.Price != 101 {
		t.Errorf("expected fresh price 101, got %+v (ok=%v)", q, ok)
	}
	if _, ok := cache.Get(2); ok {
		t.Errorf("instrument absent from tick still readable from cache")
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Len())
	}
}

func TestQuoteCacheAllReturnsCopy(t *testing.T) {
	cache := NewQuoteCache()
	cache.ReplaceAll(map[int]domain.Quote{1: {InstrumentID: 1, Price: 50}})

	all := cache.All()
	all[1] = domain.Quote{InstrumentID: 1, Price: 999}

	if q, _ := cache.Get(1); q.Price != 50 {
		t.Errorf("mutating All() result leaked into the cache: %+v", q)
	}
}

func TestQuoteCacheGetAbsent(t *testing.T) {
	cache := NewQuoteCache()
	if _, ok := cache.Get(42); ok {
		t.Error("empty cache returned a quote")
	}
}
