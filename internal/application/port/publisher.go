package port

import (
	"context"

	"stockpulse/internal/domain"
)

// Publisher is the outbound transport the engine fans ticks out through.
// Both calls are best-effort: a dead subscriber is the transport's problem,
// never the tick loop's.
type Publisher interface {
	Broadcast(payload []byte)
	SendToUser(userID int64, payload []byte)
}

// PriceMirror receives each tick's snapshot set for external consumers
// (e.g. a redis hash). Failures are logged by the caller and ignored.
type PriceMirror interface {
	UpsertQuotes(ctx context.Context, quotes []domain.Quote, ts int64) error
}
