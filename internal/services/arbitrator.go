package services

import (
	"player-auction/internal/domain"

	"github.com/shopspring/decimal"
)

// ReservePolicy optionally forces every team to keep enough purse to
// fill its remaining mandatory roster slots at the minimum bid.
type ReservePolicy struct {
	Enabled       bool
	MinRosterSize int
	MinBid        float64
}

// RequiredReserve is the purse a team must retain after the bid being
// judged: one minimum bid per mandatory slot still unfilled, excluding
// the slot this bid would fill.
func (p ReservePolicy) RequiredReserve(rosterSize int) float64 {
	if !p.Enabled {
		return 0
	}
	remaining := p.MinRosterSize - rosterSize - 1
	if remaining <= 0 {
		return 0
	}
	reserve := decimal.NewFromInt(int64(remaining)).Mul(decimal.NewFromFloat(p.MinBid))
	f, _ := reserve.Float64()
	return f
}

// Arbitrate judges one bid against the open lot and the bidding team's
// ledger. It is pure: all state comes in through the arguments, and it
// is always evaluated under the run's exclusive lock so no two bids see
// a stale high bid. Rules are checked in order; the first failure wins.
func Arbitrate(
	lot *domain.Lot,
	team *domain.Team,
	amount float64,
	sched domain.IncrementSchedule,
	maxRoster int,
	reserve ReservePolicy,
) error {
	if lot == nil || lot.State != domain.LotOpen {
		return domain.ErrLotNotOpen
	}

	if team.ID == lot.HighBidder {
		return domain.ErrSelfOutbid
	}

	// First bid only has to reach the opening price; after that the
	// band schedule applies on top of the standing high bid.
	min := lot.OpeningPrice
	if lot.HasBid() {
		min = sched.MinimumNextBid(lot.HighBid)
	}
	bid := decimal.NewFromFloat(amount)
	if bid.LessThan(decimal.NewFromFloat(min)) {
		return domain.ErrInsufficientBid
	}

	remaining := decimal.NewFromFloat(team.PurseRemaining).Sub(bid)
	if remaining.IsNegative() {
		return domain.ErrInsufficientPurse
	}
	if remaining.LessThan(decimal.NewFromFloat(reserve.RequiredReserve(len(team.Roster)))) {
		return domain.ErrInsufficientPurse
	}

	if len(team.Roster) >= maxRoster {
		return domain.ErrRosterFull
	}

	return nil
}
