package domain

import (
	"context"
)

// Collaborator interfaces. The engine depends on these, never on a
// concrete store or transport.

type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *RunSnapshot) error
	LoadSnapshot(ctx context.Context, runID string) (*RunSnapshot, error)
}

// ResultRepository is the durable audit trail of outcomes and accepted
// bids, kept for history display.
type ResultRepository interface {
	SaveResult(ctx context.Context, runID string, result *LotResult) error
	SaveAcceptedBid(ctx context.Context, runID string, playerID int, bid *AcceptedBid) error
	GetResults(ctx context.Context, runID string) ([]*LotResult, error)
	GetBidLog(ctx context.Context, runID string, playerID int) ([]*AcceptedBid, error)
}

// EventPublisher mirrors broadcast events to an external channel so
// other processes can follow the run.
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// IncrementSchedule is a total, monotonic step function over bid
// amounts: the required increment never decreases as the amount grows.
type IncrementSchedule interface {
	RequiredIncrement(amount float64) float64
	MinimumNextBid(current float64) float64
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ObserverID() string
	TeamID() string
}

type ConnectionManager interface {
	RegisterConnection(conn WebSocketConnection) error
	UnregisterConnection(observerID string) error
	NotifyTeam(teamID string, message interface{}) error
	CloseAll() error
}
