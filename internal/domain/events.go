package domain

import "time"

type EventType string

const (
	EventSnapshot     EventType = "snapshot"
	EventLotOpened    EventType = "lot_opened"
	EventBidAccepted  EventType = "bid_accepted"
	EventLotFinalized EventType = "lot_finalized"
	EventRunPaused    EventType = "run_paused"
	EventRunResumed   EventType = "run_resumed"
	EventRunCompleted EventType = "run_completed"
)

// AuctionEvent is the broadcast unit. Fields other than Type/RunID are
// populated per event kind: Player+Lot for lot_opened, Bid for
// bid_accepted, Result for lot_finalized, Snapshot for the initial
// frame delivered to late joiners.
type AuctionEvent struct {
	Type      EventType    `json:"type"`
	RunID     string       `json:"run_id"`
	Player    *Player      `json:"player,omitempty"`
	Lot       *Lot         `json:"lot,omitempty"`
	Bid       *AcceptedBid `json:"bid,omitempty"`
	Result    *LotResult   `json:"result,omitempty"`
	Snapshot  *RunSnapshot `json:"snapshot,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
