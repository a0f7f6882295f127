package ws

import (
	"sync"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/application/port"
)

// Channel is one subscriber's outbound pipe. Send must be bounded: a slow
// or dead peer returns an error instead of blocking the caller.
type Channel interface {
	Send(payload []byte) error
	Close() error
}

// Hub tracks every subscribed channel plus the private channel of each
// authenticated user. A failed write unregisters the channel on the spot,
// so the refresh loop never stalls on a dead peer.
type Hub struct {
	mu       sync.RWMutex
	channels map[Channel]struct{}
	users    map[int64]Channel
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[Channel]struct{}),
		users:    make(map[int64]Channel),
	}
}

// Subscribe registers a channel and, when userID > 0, binds it as that
// user's private channel. initial, when non-empty, is pushed immediately so
// a new subscriber does not wait a full tick for its first snapshot.
func (h *Hub) Subscribe(ch Channel, userID int64, initial []byte) {
	h.mu.Lock()
	h.channels[ch] = struct{}{}
	if userID > 0 {
		h.users[userID] = ch
	}
	h.mu.Unlock()

	if len(initial) > 0 {
		if err := ch.Send(initial); err != nil {
			h.drop(ch)
		}
	}
}

// Unsubscribe removes both the broadcast and the private registration.
func (h *Hub) Unsubscribe(ch Channel, userID int64) {
	h.mu.Lock()
	delete(h.channels, ch)
	if userID > 0 && h.users[userID] == ch {
		delete(h.users, userID)
	}
	h.mu.Unlock()
}

// Broadcast sends to every subscriber. Channels that refuse the write are
// dropped; subsequent broadcasts no longer target them.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	targets := make([]Channel, 0, len(h.channels))
	for ch := range h.channels {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	var dead []Channel
	for _, ch := range targets {
		if err := ch.Send(payload); err != nil {
			dead = append(dead, ch)
		}
	}
	for _, ch := range dead {
		h.drop(ch)
	}
	if len(dead) > 0 {
		log.Debug().Int("dropped", len(dead)).Msg("removed dead subscribers")
	}
}

// SendToUser pushes on the user's private channel if one is bound; a user
// with no live connection is a no-op, never an error.
func (h *Hub) SendToUser(userID int64, payload []byte) {
	h.mu.RLock()
	ch, ok := h.users[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := ch.Send(payload); err != nil {
		log.Warn().Int64("user_id", userID).Err(err).Msg("private send failed")
		h.drop(ch)
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// drop removes a channel from both registries and closes it.
func (h *Hub) drop(ch Channel) {
	h.mu.Lock()
	delete(h.channels, ch)
	for uid, c := range h.users {
		if c == ch {
			delete(h.users, uid)
		}
	}
	h.mu.Unlock()
	_ = ch.Close()
}

var _ port.Publisher = (*Hub)(nil)
