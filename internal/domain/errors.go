package domain

import "errors"

// Command errors. All are ordinary, client-facing outcomes except
// ErrNegativeBalance, which signals an arbitration bug and is logged
// loudly before the operation is refused.
var (
	ErrConflict             = errors.New("a lot is already open")
	ErrInvalidState         = errors.New("operation invalid for current state")
	ErrLotNotOpen           = errors.New("no lot is open for bidding")
	ErrSelfOutbid           = errors.New("team already holds the high bid")
	ErrInsufficientBid      = errors.New("bid below required minimum")
	ErrInsufficientPurse    = errors.New("insufficient purse for bid")
	ErrRosterFull           = errors.New("team roster is full")
	ErrAuctionPaused        = errors.New("auction is paused")
	ErrNegativeBalance      = errors.New("debit would drive purse negative")
	ErrContentionTimeout    = errors.New("timed out waiting for auction lock")
	ErrInvalidOperation     = errors.New("operation not permitted right now")
	ErrUnknownTeam          = errors.New("unknown team")
	ErrTeamTaken            = errors.New("team is already taken")
	ErrSnapshotNotFound     = errors.New("no snapshot stored for run")
	ErrScheduleNotMonotonic = errors.New("increment schedule must be non-decreasing")
)

// ReasonCode maps a command error to the stable code clients key UI
// messages off. Unrecognized errors map to "internal".
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "lot_already_open"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrLotNotOpen):
		return "lot_not_open"
	case errors.Is(err, ErrSelfOutbid):
		return "self_outbid"
	case errors.Is(err, ErrInsufficientBid):
		return "insufficient_bid"
	case errors.Is(err, ErrInsufficientPurse):
		return "insufficient_purse"
	case errors.Is(err, ErrRosterFull):
		return "roster_full"
	case errors.Is(err, ErrAuctionPaused):
		return "auction_paused"
	case errors.Is(err, ErrNegativeBalance):
		return "negative_balance"
	case errors.Is(err, ErrContentionTimeout):
		return "contention_timeout"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(err, ErrTeamTaken):
		return "team_taken"
	default:
		return "internal"
	}
}
