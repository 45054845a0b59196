package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"player-auction/internal/domain"
	"player-auction/pkg/logger"

	"github.com/peterldowns/testy/check"
)

// memStore keeps the latest snapshot in memory for roundtrip tests.
type memStore struct {
	mu   sync.Mutex
	snap *domain.RunSnapshot
}

func (m *memStore) SaveSnapshot(ctx context.Context, snap *domain.RunSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	var copied domain.RunSnapshot
	if err := json.Unmarshal(data, &copied); err != nil {
		return err
	}
	m.mu.Lock()
	m.snap = &copied
	m.mu.Unlock()
	return nil
}

func (m *memStore) LoadSnapshot(ctx context.Context, runID string) (*domain.RunSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return m.snap, nil
}

func testCatalog(basePricesLakh ...float64) *domain.Catalog {
	players := make(map[int]*domain.Player)
	var ids []int
	for i, base := range basePricesLakh {
		id := i + 1
		players[id] = &domain.Player{
			ID:        id,
			SetNo:     1,
			SetCode:   "M1",
			FirstName: "Player",
			Surname:   fmt.Sprintf("%d", id),
			BasePrice: base,
		}
		ids = append(ids, id)
	}
	return &domain.Catalog{
		Players: players,
		Sets:    []domain.Set{{Number: 1, Code: "M1", PlayerIDs: ids}},
	}
}

func testTeams(purse float64, ids ...string) map[string]*domain.Team {
	teams := make(map[string]*domain.Team)
	for _, id := range ids {
		teams[id] = &domain.Team{ID: id, Name: id, PurseTotal: purse, PurseRemaining: purse}
	}
	return teams
}

func newTestEngine(t *testing.T, cat *domain.Catalog, teams map[string]*domain.Team, store domain.SnapshotStore) *Engine {
	t.Helper()
	sched, err := NewSchedule([]IncrementBand{{From: 0, Step: 5}})
	check.Nil(t, err)
	return NewEngine(
		EngineConfig{
			RunID:          "run-test",
			MaxRosterSize:  25,
			BidLockTimeout: time.Second,
			ShuffleSeed:    1,
		},
		cat,
		teams,
		sched,
		NewHub(nil, logger.Nop()),
		store,
		nil,
		logger.Nop(),
	)
}

func TestEngine_StartOpensFirstLot(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000, 2000), testTeams(100, "A", "B"), nil)

	check.Nil(t, e.StartAuction(ctx))

	snap := e.CurrentLotSnapshot()
	check.Equal(t, domain.RunRunning, snap.RunState)
	check.NotNil(t, snap.Lot)
	check.Equal(t, domain.LotOpen, snap.Lot.State)
	check.Equal(t, 20.0, snap.Lot.OpeningPrice)
	check.Equal(t, 20.0, snap.MinBid)

	// Starting twice is refused.
	check.True(t, errors.Is(e.StartAuction(ctx), domain.ErrInvalidState))
}

func TestEngine_StartRequiresPlayers(t *testing.T) {
	e := newTestEngine(t, testCatalog(), testTeams(100, "A"), nil)
	check.True(t, errors.Is(e.StartAuction(context.Background()), domain.ErrInvalidState))
}

func TestEngine_BidBeforeStartRejected(t *testing.T) {
	e := newTestEngine(t, testCatalog(2000), testTeams(100, "A"), nil)

	_, err := e.SubmitBid(context.Background(), "A", 20)
	check.True(t, errors.Is(err, domain.ErrLotNotOpen))
}

func TestEngine_SellSettlesLedgerAndAdvances(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000, 1000), testTeams(100, "A", "B"), nil)
	check.Nil(t, e.StartAuction(ctx))

	first := e.CurrentLotSnapshot().Player.ID

	_, err := e.SubmitBid(ctx, "A", 20)
	check.Nil(t, err)
	_, err = e.SubmitBid(ctx, "B", 25)
	check.Nil(t, err)

	result, err := e.SellCurrentLot(ctx)
	check.Nil(t, err)
	check.Equal(t, domain.LotSold, result.Outcome)
	check.Equal(t, "B", result.TeamID)
	check.Equal(t, 25.0, result.Price)
	check.Equal(t, first, result.PlayerID)

	teamB, err := e.TeamLedgerSnapshot("B")
	check.Nil(t, err)
	check.Equal(t, 75.0, teamB.PurseRemaining)
	check.Equal(t, 1, len(teamB.Roster))

	teamA, err := e.TeamLedgerSnapshot("A")
	check.Nil(t, err)
	check.Equal(t, 100.0, teamA.PurseRemaining)
	check.Equal(t, 0, len(teamA.Roster))

	// Next lot opened automatically.
	snap := e.CurrentLotSnapshot()
	check.NotNil(t, snap.Lot)
	check.Equal(t, domain.LotOpen, snap.Lot.State)
	check.NotEqual(t, first, snap.Lot.PlayerID)
}

func TestEngine_SellWithoutBidsRefused(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000), testTeams(100, "A"), nil)
	check.Nil(t, e.StartAuction(ctx))

	_, err := e.SellCurrentLot(ctx)
	check.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestEngine_UnsoldIsIdempotentFailure(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000), testTeams(100, "A"), nil)
	check.Nil(t, e.StartAuction(ctx))

	_, err := e.MarkUnsold(ctx)
	check.Nil(t, err)

	// Catalog exhausted: run completed and no lot to close again.
	check.Equal(t, "completed", e.RunSummary().State)
	_, err = e.MarkUnsold(ctx)
	check.True(t, errors.Is(err, domain.ErrInvalidState))
	_, err = e.SkipCurrentLot(ctx)
	check.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestEngine_SkipIsTerminal(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000, 1000), testTeams(100, "A"), nil)
	check.Nil(t, e.StartAuction(ctx))

	skipped := e.CurrentLotSnapshot().Player.ID
	_, err := e.SkipCurrentLot(ctx)
	check.Nil(t, err)

	// The skipped player never comes around again.
	summary := e.RunSummary()
	check.Equal(t, domain.LotSkipped, summary.Results[0].Outcome)
	check.NotEqual(t, skipped, e.CurrentLotSnapshot().Lot.PlayerID)
}

func TestEngine_PauseBlocksBidsResumeAllows(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000), testTeams(100, "A"), nil)
	check.Nil(t, e.StartAuction(ctx))

	check.Nil(t, e.PauseAuction(ctx))
	_, err := e.SubmitBid(ctx, "A", 20)
	check.True(t, errors.Is(err, domain.ErrAuctionPaused))

	check.Nil(t, e.ResumeAuction(ctx))
	_, err = e.SubmitBid(ctx, "A", 20)
	check.Nil(t, err)

	// Pause/resume only valid from the matching state.
	check.True(t, errors.Is(e.ResumeAuction(ctx), domain.ErrInvalidState))
}

func TestEngine_CorrectPurseGuardedForHighBidder(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000), testTeams(100, "A", "B"), nil)
	check.Nil(t, e.StartAuction(ctx))

	_, err := e.SubmitBid(ctx, "A", 20)
	check.Nil(t, err)

	// A holds the high bid; editing its purse mid-flight is refused.
	err = e.CorrectPurse(ctx, "A", 50)
	check.True(t, errors.Is(err, domain.ErrInvalidOperation))

	// Any other team can be corrected.
	check.Nil(t, e.CorrectPurse(ctx, "B", 50))
	teamB, _ := e.TeamLedgerSnapshot("B")
	check.Equal(t, 50.0, teamB.PurseRemaining)
}

func TestEngine_RunsToCompletion(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000, 1000, 500), testTeams(100, "A"), nil)
	check.Nil(t, e.StartAuction(ctx))

	for i := 0; i < 3; i++ {
		// Exactly one open lot before each decision.
		snap := e.CurrentLotSnapshot()
		check.NotNil(t, snap.Lot)
		check.Equal(t, domain.LotOpen, snap.Lot.State)

		_, err := e.SubmitBid(ctx, "A", snap.MinBid)
		check.Nil(t, err)
		_, err = e.SellCurrentLot(ctx)
		check.Nil(t, err)
	}

	summary := e.RunSummary()
	check.Equal(t, "completed", summary.State)
	check.Equal(t, 3, len(summary.Results))
	check.Nil(t, e.CurrentLotSnapshot().Lot)

	// Purse property: start minus the sum of winning bids.
	teamA, _ := e.TeamLedgerSnapshot("A")
	var spent float64
	for _, entry := range teamA.Roster {
		spent += entry.Price
	}
	check.Equal(t, 3, len(teamA.Roster))
	check.True(t, teamA.PurseRemaining >= 0)
	check.Equal(t, teamA.PurseTotal, teamA.PurseRemaining+spent)
}

func TestEngine_ConcurrentBidsTotalOrder(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000), testTeams(10000, "A", "B"), nil)
	check.Nil(t, e.StartAuction(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			teamID := "A"
			if i%2 == 0 {
				teamID = "B"
			}
			// Rejections are expected under contention.
			e.SubmitBid(ctx, teamID, 20+float64(5*i))
		}(i)
	}
	wg.Wait()

	lot := e.CurrentLotSnapshot().Lot
	check.True(t, len(lot.History) > 0)

	// Accepted sequence strictly increases in amount and seq, and the
	// final high bid is the maximum accepted amount.
	maxAmount := 0.0
	for i, bid := range lot.History {
		if i > 0 {
			check.True(t, bid.Amount > lot.History[i-1].Amount)
			check.True(t, bid.Seq > lot.History[i-1].Seq)
		}
		if bid.Amount > maxAmount {
			maxAmount = bid.Amount
		}
	}
	check.Equal(t, maxAmount, lot.HighBid)
	check.Equal(t, lot.History[len(lot.History)-1].Amount, lot.HighBid)
}

func TestEngine_SnapshotRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	e := newTestEngine(t, testCatalog(2000, 2000), testTeams(100, "A", "B"), store)
	check.Nil(t, e.StartAuction(ctx))

	_, err := e.SubmitBid(ctx, "A", 20)
	check.Nil(t, err)
	_, err = e.SellCurrentLot(ctx)
	check.Nil(t, err)
	_, err = e.SubmitBid(ctx, "B", 20)
	check.Nil(t, err)

	// Force a persist of the state including the in-flight bid.
	check.Nil(t, e.PauseAuction(ctx))

	saved, err := store.LoadSnapshot(ctx, "run-test")
	check.Nil(t, err)

	restored := newTestEngine(t, testCatalog(2000, 2000), testTeams(100, "A", "B"), nil)
	check.Nil(t, restored.Restore(saved))

	check.Equal(t, e.RunSummary().State, restored.RunSummary().State)
	check.Equal(t, e.RunSummary().Position, restored.RunSummary().Position)
	check.Equal(t, e.RunSummary().Results, restored.RunSummary().Results)

	origLot := e.CurrentLotSnapshot().Lot
	restLot := restored.CurrentLotSnapshot().Lot
	check.Equal(t, origLot.PlayerID, restLot.PlayerID)
	check.Equal(t, origLot.HighBid, restLot.HighBid)
	check.Equal(t, origLot.HighBidder, restLot.HighBidder)
	check.Equal(t, origLot.History, restLot.History)

	teamA, _ := restored.TeamLedgerSnapshot("A")
	check.Equal(t, 80.0, teamA.PurseRemaining)

	// The restored run keeps going from where it left off.
	check.Nil(t, restored.ResumeAuction(ctx))
	_, err = restored.SellCurrentLot(ctx)
	check.Nil(t, err)
	check.Equal(t, "completed", restored.RunSummary().State)
}

func TestEngine_ClaimAndReleaseTeams(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000), testTeams(100, "A", "B"), nil)

	check.Nil(t, e.ClaimTeam("A", "Dhruv"))
	check.True(t, errors.Is(e.ClaimTeam("A", "Mira"), domain.ErrTeamTaken))
	check.True(t, errors.Is(e.ClaimTeam("C", "Mira"), domain.ErrUnknownTeam))

	check.Nil(t, e.ReleaseTeam("A"))
	check.Nil(t, e.ClaimTeam("A", "Mira"))

	// Claims are frozen once the auction starts.
	check.Nil(t, e.StartAuction(ctx))
	check.True(t, errors.Is(e.ClaimTeam("B", "Late"), domain.ErrInvalidState))
	check.True(t, errors.Is(e.ReleaseTeam("A"), domain.ErrInvalidState))
}

func TestEngine_SubscribeDeliversSnapshotThenEvents(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testCatalog(2000), testTeams(100, "A"), nil)
	check.Nil(t, e.StartAuction(ctx))

	sub := e.Subscribe()
	defer sub.Close()

	first := <-sub.Events()
	check.Equal(t, domain.EventSnapshot, first.Type)
	check.NotNil(t, first.Snapshot)
	check.Equal(t, domain.RunRunning, first.Snapshot.State)

	_, err := e.SubmitBid(ctx, "A", 20)
	check.Nil(t, err)

	next := <-sub.Events()
	check.Equal(t, domain.EventBidAccepted, next.Type)
	check.Equal(t, 20.0, next.Bid.Amount)
}
