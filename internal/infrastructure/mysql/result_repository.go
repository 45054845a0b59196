package mysql

import (
	"context"
	"database/sql"

	"player-auction/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLResultRepository is the durable audit trail: one row per
// finalized lot and one per accepted bid.
type MySQLResultRepository struct {
	db *sql.DB
}

func NewMySQLResultRepository(db *sql.DB) *MySQLResultRepository {
	return &MySQLResultRepository{db: db}
}

func (r *MySQLResultRepository) SaveResult(ctx context.Context, runID string, result *domain.LotResult) error {
	query := `
        INSERT INTO lot_results (run_id, player_id, outcome, team_id, price, decided_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		runID, result.PlayerID, result.Outcome.String(), result.TeamID, result.Price, result.DecidedAt)
	return err
}

func (r *MySQLResultRepository) SaveAcceptedBid(ctx context.Context, runID string, playerID int, bid *domain.AcceptedBid) error {
	query := `
        INSERT INTO bid_log (run_id, player_id, seq, team_id, amount, bid_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		runID, playerID, bid.Seq, bid.TeamID, bid.Amount, bid.At)
	return err
}

func (r *MySQLResultRepository) GetResults(ctx context.Context, runID string) ([]*domain.LotResult, error) {
	query := `
        SELECT player_id, outcome, team_id, price, decided_at
        FROM lot_results WHERE run_id = ? ORDER BY decided_at
    `
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.LotResult
	for rows.Next() {
		var result domain.LotResult
		var outcome string
		if err := rows.Scan(&result.PlayerID, &outcome, &result.TeamID, &result.Price, &result.DecidedAt); err != nil {
			return nil, err
		}
		result.Outcome = parseOutcome(outcome)
		results = append(results, &result)
	}
	return results, rows.Err()
}

func (r *MySQLResultRepository) GetBidLog(ctx context.Context, runID string, playerID int) ([]*domain.AcceptedBid, error) {
	query := `
        SELECT seq, team_id, amount, bid_at
        FROM bid_log WHERE run_id = ? AND player_id = ? ORDER BY seq
    `
	rows, err := r.db.QueryContext(ctx, query, runID, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.AcceptedBid
	for rows.Next() {
		var bid domain.AcceptedBid
		if err := rows.Scan(&bid.Seq, &bid.TeamID, &bid.Amount, &bid.At); err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}
	return bids, rows.Err()
}

func parseOutcome(s string) domain.LotState {
	switch s {
	case "sold":
		return domain.LotSold
	case "unsold":
		return domain.LotUnsold
	case "skipped":
		return domain.LotSkipped
	default:
		return domain.LotPending
	}
}
