package services

import (
	"time"

	"player-auction/internal/domain"
)

// LotController tracks the single open lot. At most one lot is open
// system-wide; Open enforces that and Finalize clears it.
type LotController struct {
	current *domain.Lot
}

func NewLotController() *LotController {
	return &LotController{}
}

func (c *LotController) Current() *domain.Lot {
	return c.current
}

func (c *LotController) Open(player *domain.Player, now time.Time) (*domain.Lot, error) {
	if c.current != nil && c.current.State == domain.LotOpen {
		return nil, domain.ErrConflict
	}
	c.current = &domain.Lot{
		PlayerID:     player.ID,
		State:        domain.LotOpen,
		OpeningPrice: player.OpeningPrice(),
		OpenedAt:     now,
	}
	return c.current, nil
}

// RecordAccepted applies an already-arbitrated high-bid transition.
func (c *LotController) RecordAccepted(bid domain.AcceptedBid) {
	c.current.HighBid = bid.Amount
	c.current.HighBidder = bid.TeamID
	c.current.LastBidAt = bid.At
	c.current.History = append(c.current.History, bid)
}

// Finalize moves the open lot to a terminal state and clears the
// current reference. Sold requires a standing high bid.
func (c *LotController) Finalize(outcome domain.LotState, now time.Time) (*domain.Lot, error) {
	if c.current == nil || c.current.State != domain.LotOpen {
		return nil, domain.ErrInvalidState
	}
	if !outcome.Terminal() {
		return nil, domain.ErrInvalidState
	}
	if outcome == domain.LotSold && !c.current.HasBid() {
		return nil, domain.ErrInvalidState
	}

	lot := c.current
	lot.State = outcome
	c.current = nil
	return lot, nil
}

// Restore reinstates a lot from a snapshot.
func (c *LotController) Restore(lot *domain.Lot) {
	c.current = lot
}
