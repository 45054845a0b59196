package services

import (
	"player-auction/internal/domain"
	"player-auction/pkg/logger"

	"github.com/shopspring/decimal"
)

// Ledger owns the team purses and rosters for one run. It is not
// locked itself; every caller goes through the engine's critical
// section.
type Ledger struct {
	teams map[string]*domain.Team
	log   logger.Logger
}

func NewLedger(teams map[string]*domain.Team, log logger.Logger) *Ledger {
	return &Ledger{teams: teams, log: log}
}

func (l *Ledger) Team(id string) (*domain.Team, error) {
	team, ok := l.teams[id]
	if !ok {
		return nil, domain.ErrUnknownTeam
	}
	return team, nil
}

func (l *Ledger) CanAfford(teamID string, amount float64) bool {
	team, ok := l.teams[teamID]
	if !ok {
		return false
	}
	return !decimal.NewFromFloat(team.PurseRemaining).Sub(decimal.NewFromFloat(amount)).IsNegative()
}

// Debit settles a sale: purse down, roster entry added. A negative
// result means the arbitrator let an unaffordable bid through; the
// debit is refused and escalated rather than applied.
func (l *Ledger) Debit(teamID string, playerID int, amount float64) error {
	team, err := l.Team(teamID)
	if err != nil {
		return err
	}

	remaining := decimal.NewFromFloat(team.PurseRemaining).Sub(decimal.NewFromFloat(amount))
	if remaining.IsNegative() {
		l.log.Error("invariant breach: settlement would drive purse negative",
			"team_id", teamID, "player_id", playerID, "amount", amount,
			"purse_remaining", team.PurseRemaining)
		return domain.ErrNegativeBalance
	}

	team.PurseRemaining, _ = remaining.Float64()
	team.Roster = append(team.Roster, domain.RosterEntry{PlayerID: playerID, Price: amount})
	return nil
}

// Credit undoes a sale. Privileged correction path only, never part of
// normal settlement.
func (l *Ledger) Credit(teamID string, playerID int) error {
	team, err := l.Team(teamID)
	if err != nil {
		return err
	}

	for i, entry := range team.Roster {
		if entry.PlayerID == playerID {
			restored := decimal.NewFromFloat(team.PurseRemaining).Add(decimal.NewFromFloat(entry.Price))
			team.PurseRemaining, _ = restored.Float64()
			team.Roster = append(team.Roster[:i], team.Roster[i+1:]...)
			return nil
		}
	}
	return domain.ErrInvalidOperation
}

// SetPurse is the admin purse correction. adjustTotal additionally
// resets the total, which only makes sense before the run starts.
func (l *Ledger) SetPurse(teamID string, amount float64, adjustTotal bool) error {
	team, err := l.Team(teamID)
	if err != nil {
		return err
	}
	team.PurseRemaining = amount
	if adjustTotal {
		team.PurseTotal = amount
	}
	return nil
}

func (l *Ledger) Snapshot() map[string]*domain.Team {
	out := make(map[string]*domain.Team, len(l.teams))
	for id, team := range l.teams {
		out[id] = team.Clone()
	}
	return out
}
