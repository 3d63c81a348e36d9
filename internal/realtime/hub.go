package realtime

import (
	"context"
	"sync"

	"wedding-journey/internal/models"
)

const subscriberBuffer = 8

// Hub is an in-process Feed. Slow subscribers miss notifications instead of
// blocking publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[models.PlayerID]map[*hubSubscription]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subs: make(map[models.PlayerID]map[*hubSubscription]struct{}),
	}
}

// Publish delivers change to every subscriber of its player
func (h *Hub) Publish(ctx context.Context, change Change) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[change.PlayerID] {
		select {
		case sub.ch <- change:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscription for id
func (h *Hub) Subscribe(ctx context.Context, id models.PlayerID) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &hubSubscription{
		hub: h,
		id:  id,
		ch:  make(chan Change, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[*hubSubscription]struct{})
	}
	h.subs[id][sub] = struct{}{}
	return sub, nil
}

// Subscribers returns the number of live subscriptions for id
func (h *Hub) Subscribers(id models.PlayerID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[id])
}

func (h *Hub) remove(sub *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[sub.id], sub)
	if len(h.subs[sub.id]) == 0 {
		delete(h.subs, sub.id)
	}
	close(sub.ch)
}

type hubSubscription struct {
	hub  *Hub
	id   models.PlayerID
	ch   chan Change
	once sync.Once
}

func (s *hubSubscription) Changes() <-chan Change {
	return s.ch
}

func (s *hubSubscription) Close() error {
	s.once.Do(func() { s.hub.remove(s) })
	return nil
}
