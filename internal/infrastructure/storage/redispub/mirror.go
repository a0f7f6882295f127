package redispub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// Mirror writes each tick's snapshot set into a redis hash so external
// consumers can read latest prices without touching the process. Strictly
// best-effort; the engine logs and ignores failures.
type Mirror struct {
	rdb       *redis.Client
	keyLatest string
	keyTick   string
	ttl       time.Duration
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Mirror {
	return &Mirror{
		rdb:       rdb,
		keyLatest: prefix + ":latest",
		keyTick:   prefix + ":tick_ms",
		ttl:       ttl,
	}
}

func (m *Mirror) UpsertQuotes(ctx context.Context, quotes []domain.Quote, ts int64) error {
	if len(quotes) == 0 {
		return nil
	}

	fields := make(map[string]any, len(quotes))
	for _, q := range quotes {
		b, err := json.Marshal(q)
		if err != nil {
			continue
		}
		fields[q.Symbol] = string(b)
	}

	pipe := m.rdb.Pipeline()
	pipe.HSet(ctx, m.keyLatest, fields)
	pipe.Set(ctx, m.keyTick, ts, m.ttl)
	if m.ttl > 0 {
		pipe.Expire(ctx, m.keyLatest, m.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

var _ port.PriceMirror = (*Mirror)(nil)
