package domain

import (
	"strings"
	"time"
)

// Player is a catalog entry. Base prices are quoted in lakh, the way
// auction lists publish them; bidding happens in crore.
type Player struct {
	ID        int     `json:"id"`
	SetNo     int     `json:"set_no"`
	SetCode   string  `json:"set_code"`
	FirstName string  `json:"first_name"`
	Surname   string  `json:"surname"`
	Country   string  `json:"country"`
	Role      string  `json:"role"`
	BasePrice float64 `json:"base_price"`
}

func (p *Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.Surname)
}

// OpeningPrice converts the lakh base price to the crore amount the
// first bid must reach.
func (p *Player) OpeningPrice() float64 {
	return p.BasePrice / 100.0
}

// Set groups players presented together. Order of PlayerIDs is fixed
// once the catalog is loaded; shuffling happens at auction start.
type Set struct {
	Number    int    `json:"number"`
	Code      string `json:"code"`
	PlayerIDs []int  `json:"player_ids"`
}

// Catalog is the ordered player list consumed by the engine. It is
// read-only after load.
type Catalog struct {
	Players map[int]*Player `json:"players"`
	Sets    []Set           `json:"sets"`
}

func (c *Catalog) Player(id int) (*Player, bool) {
	p, ok := c.Players[id]
	return p, ok
}

func (c *Catalog) Size() int {
	return len(c.Players)
}

type RosterEntry struct {
	PlayerID int     `json:"player_id"`
	Price    float64 `json:"price"`
}

// Team holds a franchise's purse and roster. All amounts are crore.
type Team struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Owner          string        `json:"owner,omitempty"`
	PurseTotal     float64       `json:"purse_total"`
	PurseRemaining float64       `json:"purse_remaining"`
	Roster         []RosterEntry `json:"roster"`
}

func (t *Team) Clone() *Team {
	c := *t
	c.Roster = append([]RosterEntry(nil), t.Roster...)
	return &c
}

type LotState int

const (
	LotPending LotState = iota
	LotOpen
	LotSold
	LotUnsold
	LotSkipped
)

func (s LotState) String() string {
	switch s {
	case LotPending:
		return "pending"
	case LotOpen:
		return "open"
	case LotSold:
		return "sold"
	case LotUnsold:
		return "unsold"
	case LotSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether a lot can no longer change state.
func (s LotState) Terminal() bool {
	return s == LotSold || s == LotUnsold || s == LotSkipped
}

type RunState int

const (
	RunNotStarted RunState = iota
	RunRunning
	RunPaused
	RunCompleted
)

func (s RunState) String() string {
	switch s {
	case RunNotStarted:
		return "not_started"
	case RunRunning:
		return "running"
	case RunPaused:
		return "paused"
	case RunCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// AcceptedBid is one accepted high-bid transition. Seq is assigned at
// ingress and is strictly increasing across the whole run.
type AcceptedBid struct {
	Seq    uint64    `json:"seq"`
	TeamID string    `json:"team_id"`
	Amount float64   `json:"amount"`
	At     time.Time `json:"at"`
}

// Lot is the single player currently (or last) up for bidding. Only
// accepted transitions are kept; rejected bids are reported to the
// caller and discarded.
type Lot struct {
	PlayerID     int           `json:"player_id"`
	State        LotState      `json:"state"`
	OpeningPrice float64       `json:"opening_price"`
	HighBid      float64       `json:"high_bid"`
	HighBidder   string        `json:"high_bidder,omitempty"`
	History      []AcceptedBid `json:"history,omitempty"`
	OpenedAt     time.Time     `json:"opened_at"`
	LastBidAt    time.Time     `json:"last_bid_at,omitempty"`
}

func (l *Lot) HasBid() bool {
	return l.HighBidder != ""
}

func (l *Lot) Clone() *Lot {
	c := *l
	c.History = append([]AcceptedBid(nil), l.History...)
	return &c
}

// LotResult records how a lot ended. TeamID and Price are zero for
// unsold and skipped lots.
type LotResult struct {
	PlayerID  int       `json:"player_id"`
	Outcome   LotState  `json:"outcome"`
	TeamID    string    `json:"team_id,omitempty"`
	Price     float64   `json:"price,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// RunSnapshot is the full serializable state of an auction run, minus
// the read-only catalog. SaveSnapshot/LoadSnapshot roundtrip it.
type RunSnapshot struct {
	RunID   string           `json:"run_id"`
	State   RunState         `json:"state"`
	Seq     uint64           `json:"seq"`
	Order   []int            `json:"order"`
	Cursor  int              `json:"cursor"`
	Lot     *Lot             `json:"lot,omitempty"`
	Teams   map[string]*Team `json:"teams"`
	Results []LotResult      `json:"results"`
	SavedAt time.Time        `json:"saved_at"`
}
