package services

import (
	"context"
	"sync"

	"player-auction/internal/domain"
	"player-auction/pkg/logger"
	"player-auction/pkg/utils"
)

const subscriberBuffer = 64

// Subscription is one observer's ordered event stream. The first event
// delivered is always a snapshot of the run at subscribe time.
type Subscription struct {
	id  string
	ch  chan *domain.AuctionEvent
	hub *Hub
}

func (s *Subscription) Events() <-chan *domain.AuctionEvent {
	return s.ch
}

func (s *Subscription) Close() {
	s.hub.unsubscribe(s.id)
}

// Hub fans events out to in-process subscribers and mirrors them to an
// optional external publisher. Publish is always called under the
// engine's lock, so every subscriber sees one lot's events in
// arbitration order.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	mirror domain.EventPublisher
	log    logger.Logger
}

func NewHub(mirror domain.EventPublisher, log logger.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]*Subscription),
		mirror: mirror,
		log:    log,
	}
}

// Subscribe registers an observer and queues the given snapshot event
// as its first delivery.
func (h *Hub) Subscribe(snapshot *domain.AuctionEvent) *Subscription {
	sub := &Subscription{
		id:  utils.GenerateID("sub"),
		ch:  make(chan *domain.AuctionEvent, subscriberBuffer),
		hub: h,
	}
	sub.ch <- snapshot

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	h.log.Debug("observer subscribed", "sub_id", sub.id)
	return sub
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.mu.Unlock()
}

// Publish delivers to every subscriber. A subscriber that has fallen
// subscriberBuffer events behind is detached instead of blocking the
// auction.
func (h *Hub) Publish(ctx context.Context, event *domain.AuctionEvent) {
	h.mu.Lock()
	for id, sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
			h.log.Warn("detaching slow observer", "sub_id", id)
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	h.mu.Unlock()

	if h.mirror != nil {
		if err := h.mirror.PublishAuctionEvent(ctx, event); err != nil {
			h.log.Error("failed to mirror event", "type", event.Type, "error", err)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
