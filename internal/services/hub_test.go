package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"player-auction/internal/domain"
	"player-auction/pkg/logger"

	"github.com/peterldowns/testy/check"
)

func snapshotEvent() *domain.AuctionEvent {
	return &domain.AuctionEvent{
		Type:      domain.EventSnapshot,
		RunID:     "run-test",
		Snapshot:  &domain.RunSnapshot{RunID: "run-test"},
		Timestamp: time.Now(),
	}
}

func TestHub_SnapshotDeliveredFirst(t *testing.T) {
	hub := NewHub(nil, logger.Nop())
	sub := hub.Subscribe(snapshotEvent())
	defer sub.Close()

	hub.Publish(context.Background(), &domain.AuctionEvent{Type: domain.EventLotOpened})

	first := <-sub.Events()
	check.Equal(t, domain.EventSnapshot, first.Type)
	second := <-sub.Events()
	check.Equal(t, domain.EventLotOpened, second.Type)
}

func TestHub_PreservesPublishOrder(t *testing.T) {
	hub := NewHub(nil, logger.Nop())
	sub := hub.Subscribe(snapshotEvent())
	defer sub.Close()

	<-sub.Events() // drain snapshot

	for i := 0; i < 10; i++ {
		hub.Publish(context.Background(), &domain.AuctionEvent{
			Type: domain.EventBidAccepted,
			Bid:  &domain.AcceptedBid{Seq: uint64(i + 1)},
		})
	}

	for i := 0; i < 10; i++ {
		event := <-sub.Events()
		check.Equal(t, uint64(i+1), event.Bid.Seq)
	}
}

func TestHub_CloseStopsDelivery(t *testing.T) {
	hub := NewHub(nil, logger.Nop())
	sub := hub.Subscribe(snapshotEvent())
	check.Equal(t, 1, hub.SubscriberCount())

	sub.Close()
	check.Equal(t, 0, hub.SubscriberCount())

	// Channel is closed; range terminates.
	count := 0
	for range sub.Events() {
		count++
	}
	check.Equal(t, 1, count) // only the queued snapshot
}

func TestHub_DetachesSlowSubscriber(t *testing.T) {
	hub := NewHub(nil, logger.Nop())
	sub := hub.Subscribe(snapshotEvent())

	// Never drained: fill the buffer past capacity.
	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish(context.Background(), &domain.AuctionEvent{Type: domain.EventBidAccepted})
	}

	check.Equal(t, 0, hub.SubscriberCount())
	_ = sub
}

type recordingPublisher struct {
	events []*domain.AuctionEvent
}

func (p *recordingPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	p.events = append(p.events, event)
	return nil
}

func TestHub_MirrorsToExternalPublisher(t *testing.T) {
	mirror := &recordingPublisher{}
	hub := NewHub(mirror, logger.Nop())

	for i := 0; i < 3; i++ {
		hub.Publish(context.Background(), &domain.AuctionEvent{
			Type:  domain.EventLotOpened,
			RunID: fmt.Sprintf("run-%d", i),
		})
	}

	check.Equal(t, 3, len(mirror.events))
	check.Equal(t, "run-2", mirror.events[2].RunID)
}
