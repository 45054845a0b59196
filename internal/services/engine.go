package services

import (
	"context"
	"math/rand"
	"time"

	"player-auction/internal/domain"
	"player-auction/pkg/logger"
)

type EngineConfig struct {
	RunID          string
	MaxRosterSize  int
	MinRosterSize  int
	ReserveEnabled bool
	MinBid         float64
	BidLockTimeout time.Duration
	ShuffleSeed    int64
}

// Engine is the auction run aggregate: the catalog cursor, the team
// ledgers, the single open lot and the run state machine. Every
// mutation goes through one exclusive critical section; bid submission
// is the only caller that bounds its wait for it.
type Engine struct {
	cfg     EngineConfig
	catalog *domain.Catalog
	sched   domain.IncrementSchedule
	ledger  *Ledger
	lots    *LotController
	hub     *Hub
	store   domain.SnapshotStore
	results domain.ResultRepository
	log     logger.Logger

	sem chan struct{} // 1-slot semaphore guarding everything below

	state      domain.RunState
	order      []int
	cursor     int
	seq        uint64
	resultsLog []domain.LotResult
}

func NewEngine(
	cfg EngineConfig,
	catalog *domain.Catalog,
	teams map[string]*domain.Team,
	sched domain.IncrementSchedule,
	hub *Hub,
	store domain.SnapshotStore,
	results domain.ResultRepository,
	log logger.Logger,
) *Engine {
	if cfg.BidLockTimeout <= 0 {
		cfg.BidLockTimeout = 2 * time.Second
	}
	return &Engine{
		cfg:     cfg,
		catalog: catalog,
		sched:   sched,
		ledger:  NewLedger(teams, log),
		lots:    NewLotController(),
		hub:     hub,
		store:   store,
		results: results,
		log:     log,
		sem:     make(chan struct{}, 1),
		state:   domain.RunNotStarted,
	}
}

func (e *Engine) lock() {
	e.sem <- struct{}{}
}

func (e *Engine) unlock() {
	<-e.sem
}

// lockWithin bounds the wait for the critical section. Normal holds
// are microseconds of validation; the timeout only matters if the lock
// is held pathologically long.
func (e *Engine) lockWithin(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrContentionTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartAuction fixes the presentation order (sets ascending, players
// shuffled within each set) and opens the first lot.
func (e *Engine) StartAuction(ctx context.Context) error {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunNotStarted {
		return domain.ErrInvalidState
	}
	if e.catalog.Size() == 0 {
		return domain.ErrInvalidState
	}

	seed := e.cfg.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	e.order = e.order[:0]
	for _, set := range e.catalog.Sets {
		ids := append([]int(nil), set.PlayerIDs...)
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		e.order = append(e.order, ids...)
	}
	e.cursor = 0
	e.state = domain.RunRunning

	e.log.Info("auction started", "run_id", e.cfg.RunID, "players", len(e.order), "seed", seed)

	if err := e.openCurrentLocked(ctx); err != nil {
		return err
	}
	e.persistLocked(ctx)
	return nil
}

func (e *Engine) openCurrentLocked(ctx context.Context) error {
	player, ok := e.catalog.Player(e.order[e.cursor])
	if !ok {
		return domain.ErrInvalidState
	}
	lot, err := e.lots.Open(player, time.Now())
	if err != nil {
		return err
	}

	e.log.Info("lot opened", "player_id", player.ID, "player", player.FullName(),
		"opening_price", lot.OpeningPrice, "position", e.cursor+1, "of", len(e.order))
	e.hub.Publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventLotOpened,
		RunID:     e.cfg.RunID,
		Player:    player,
		Lot:       lot.Clone(),
		Timestamp: time.Now(),
	})
	return nil
}

// SubmitBid arbitrates one bid. It fails fast with
// ErrContentionTimeout instead of queueing behind a stuck lock.
func (e *Engine) SubmitBid(ctx context.Context, teamID string, amount float64) (*domain.AcceptedBid, error) {
	if err := e.lockWithin(ctx, e.cfg.BidLockTimeout); err != nil {
		return nil, err
	}
	defer e.unlock()

	if e.state == domain.RunPaused {
		return nil, domain.ErrAuctionPaused
	}

	team, err := e.ledger.Team(teamID)
	if err != nil {
		return nil, err
	}

	reserve := ReservePolicy{
		Enabled:       e.cfg.ReserveEnabled,
		MinRosterSize: e.cfg.MinRosterSize,
		MinBid:        e.cfg.MinBid,
	}
	if err := Arbitrate(e.lots.Current(), team, amount, e.sched, e.cfg.MaxRosterSize, reserve); err != nil {
		return nil, err
	}

	e.seq++
	accepted := domain.AcceptedBid{
		Seq:    e.seq,
		TeamID: teamID,
		Amount: amount,
		At:     time.Now(),
	}
	e.lots.RecordAccepted(accepted)

	lot := e.lots.Current()
	if e.results != nil {
		if err := e.results.SaveAcceptedBid(ctx, e.cfg.RunID, lot.PlayerID, &accepted); err != nil {
			e.log.Error("failed to persist accepted bid", "error", err)
		}
	}

	e.log.Info("bid accepted", "team_id", teamID, "amount", amount, "seq", accepted.Seq,
		"player_id", lot.PlayerID)
	e.hub.Publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidAccepted,
		RunID:     e.cfg.RunID,
		Bid:       &accepted,
		Lot:       lot.Clone(),
		Timestamp: accepted.At,
	})
	return &accepted, nil
}

// SellCurrentLot settles the open lot to its high bidder and advances.
func (e *Engine) SellCurrentLot(ctx context.Context) (*domain.LotResult, error) {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunRunning && e.state != domain.RunPaused {
		return nil, domain.ErrInvalidState
	}
	return e.sellLocked(ctx)
}

func (e *Engine) sellLocked(ctx context.Context) (*domain.LotResult, error) {
	lot := e.lots.Current()
	if lot == nil || lot.State != domain.LotOpen {
		return nil, domain.ErrInvalidState
	}
	if !lot.HasBid() {
		return nil, domain.ErrInvalidState
	}

	// Settle before finalizing so a refused debit leaves the lot open.
	if err := e.ledger.Debit(lot.HighBidder, lot.PlayerID, lot.HighBid); err != nil {
		return nil, err
	}

	finalized, err := e.lots.Finalize(domain.LotSold, time.Now())
	if err != nil {
		return nil, err
	}

	result := domain.LotResult{
		PlayerID:  finalized.PlayerID,
		Outcome:   domain.LotSold,
		TeamID:    finalized.HighBidder,
		Price:     finalized.HighBid,
		DecidedAt: time.Now(),
	}
	e.log.Info("lot sold", "player_id", result.PlayerID, "team_id", result.TeamID, "price", result.Price)
	e.finishLotLocked(ctx, finalized, result)
	return &result, nil
}

// MarkUnsold closes the open lot with no winner and advances.
func (e *Engine) MarkUnsold(ctx context.Context) (*domain.LotResult, error) {
	return e.closeWithout(ctx, domain.LotUnsold)
}

// SkipCurrentLot sets the lot aside without offering it again.
func (e *Engine) SkipCurrentLot(ctx context.Context) (*domain.LotResult, error) {
	return e.closeWithout(ctx, domain.LotSkipped)
}

func (e *Engine) closeWithout(ctx context.Context, outcome domain.LotState) (*domain.LotResult, error) {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunRunning && e.state != domain.RunPaused {
		return nil, domain.ErrInvalidState
	}
	return e.closeLocked(ctx, outcome)
}

func (e *Engine) closeLocked(ctx context.Context, outcome domain.LotState) (*domain.LotResult, error) {
	finalized, err := e.lots.Finalize(outcome, time.Now())
	if err != nil {
		return nil, err
	}

	result := domain.LotResult{
		PlayerID:  finalized.PlayerID,
		Outcome:   outcome,
		DecidedAt: time.Now(),
	}
	e.log.Info("lot closed", "player_id", result.PlayerID, "outcome", outcome.String())
	e.finishLotLocked(ctx, finalized, result)
	return &result, nil
}

// HammerIdleLot finalizes the open lot if it has sat idle past window:
// sold to the standing high bidder, unsold when nobody bid. The idle
// check and the finalize share one lock hold, so a lot resolved by an
// admin in the meantime cannot have the stale decision land on its
// freshly opened successor.
func (e *Engine) HammerIdleLot(ctx context.Context, window time.Duration) (*domain.LotResult, error) {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunRunning {
		return nil, domain.ErrInvalidState
	}
	lot := e.lots.Current()
	if lot == nil || lot.State != domain.LotOpen {
		return nil, domain.ErrInvalidState
	}

	idleSince := lot.OpenedAt
	if lot.HasBid() {
		idleSince = lot.LastBidAt
	}
	if time.Since(idleSince) < window {
		return nil, domain.ErrInvalidState
	}

	if lot.HasBid() {
		return e.sellLocked(ctx)
	}
	return e.closeLocked(ctx, domain.LotUnsold)
}

func (e *Engine) finishLotLocked(ctx context.Context, lot *domain.Lot, result domain.LotResult) {
	e.resultsLog = append(e.resultsLog, result)
	if e.results != nil {
		if err := e.results.SaveResult(ctx, e.cfg.RunID, &result); err != nil {
			e.log.Error("failed to persist lot result", "error", err)
		}
	}

	e.hub.Publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventLotFinalized,
		RunID:     e.cfg.RunID,
		Lot:       lot.Clone(),
		Result:    &result,
		Timestamp: time.Now(),
	})

	e.advanceLocked(ctx)
	e.persistLocked(ctx)
}

func (e *Engine) advanceLocked(ctx context.Context) {
	e.cursor++
	if e.cursor >= len(e.order) {
		e.state = domain.RunCompleted
		e.log.Info("auction completed", "run_id", e.cfg.RunID, "lots", len(e.resultsLog))
		e.hub.Publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventRunCompleted,
			RunID:     e.cfg.RunID,
			Timestamp: time.Now(),
		})
		return
	}
	if err := e.openCurrentLocked(ctx); err != nil {
		e.log.Error("failed to open next lot", "error", err)
	}
}

// PauseAuction freezes bid acceptance. The open lot is untouched.
func (e *Engine) PauseAuction(ctx context.Context) error {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunRunning {
		return domain.ErrInvalidState
	}
	e.state = domain.RunPaused
	e.log.Info("auction paused", "run_id", e.cfg.RunID)
	e.hub.Publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventRunPaused,
		RunID:     e.cfg.RunID,
		Timestamp: time.Now(),
	})
	e.persistLocked(ctx)
	return nil
}

func (e *Engine) ResumeAuction(ctx context.Context) error {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunPaused {
		return domain.ErrInvalidState
	}
	e.state = domain.RunRunning
	e.log.Info("auction resumed", "run_id", e.cfg.RunID)
	e.hub.Publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventRunResumed,
		RunID:     e.cfg.RunID,
		Timestamp: time.Now(),
	})
	e.persistLocked(ctx)
	return nil
}

// CorrectPurse is the privileged out-of-band ledger edit. It is
// refused while the team holds the high bid on an open lot, since that
// would retroactively invalidate the bid's affordability check.
func (e *Engine) CorrectPurse(ctx context.Context, teamID string, amount float64) error {
	e.lock()
	defer e.unlock()

	if lot := e.lots.Current(); lot != nil && lot.State == domain.LotOpen && lot.HighBidder == teamID {
		return domain.ErrInvalidOperation
	}

	adjustTotal := e.state == domain.RunNotStarted
	if err := e.ledger.SetPurse(teamID, amount, adjustTotal); err != nil {
		return err
	}
	e.log.Warn("purse corrected", "team_id", teamID, "amount", amount)
	e.persistLocked(ctx)
	return nil
}

// ClaimTeam assigns an owner display name to a franchise before the
// run starts.
func (e *Engine) ClaimTeam(teamID, owner string) error {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunNotStarted {
		return domain.ErrInvalidState
	}
	team, err := e.ledger.Team(teamID)
	if err != nil {
		return err
	}
	if team.Owner != "" {
		return domain.ErrTeamTaken
	}
	team.Owner = owner
	return nil
}

func (e *Engine) ReleaseTeam(teamID string) error {
	e.lock()
	defer e.unlock()

	if e.state != domain.RunNotStarted {
		return domain.ErrInvalidState
	}
	team, err := e.ledger.Team(teamID)
	if err != nil {
		return err
	}
	team.Owner = ""
	return nil
}

// LotSnapshot pairs the open lot with its player for rendering.
type LotSnapshot struct {
	RunState domain.RunState `json:"run_state"`
	Lot      *domain.Lot     `json:"lot,omitempty"`
	Player   *domain.Player  `json:"player,omitempty"`
	MinBid   float64         `json:"min_next_bid,omitempty"`
}

func (e *Engine) CurrentLotSnapshot() *LotSnapshot {
	e.lock()
	defer e.unlock()
	return e.lotSnapshotLocked()
}

func (e *Engine) lotSnapshotLocked() *LotSnapshot {
	snap := &LotSnapshot{RunState: e.state}
	lot := e.lots.Current()
	if lot == nil {
		return snap
	}
	snap.Lot = lot.Clone()
	if player, ok := e.catalog.Player(lot.PlayerID); ok {
		snap.Player = player
	}
	if lot.HasBid() {
		snap.MinBid = e.sched.MinimumNextBid(lot.HighBid)
	} else {
		snap.MinBid = lot.OpeningPrice
	}
	return snap
}

func (e *Engine) TeamLedgerSnapshot(teamID string) (*domain.Team, error) {
	e.lock()
	defer e.unlock()

	team, err := e.ledger.Team(teamID)
	if err != nil {
		return nil, err
	}
	return team.Clone(), nil
}

// RunSummary is the coarse run overview for dashboards.
type RunSummary struct {
	RunID    string                  `json:"run_id"`
	State    string                  `json:"state"`
	Position int                     `json:"position"`
	Total    int                     `json:"total"`
	Results  []domain.LotResult      `json:"results"`
	Teams    map[string]*domain.Team `json:"teams"`
}

func (e *Engine) RunSummary() *RunSummary {
	e.lock()
	defer e.unlock()

	return &RunSummary{
		RunID:    e.cfg.RunID,
		State:    e.state.String(),
		Position: e.cursor,
		Total:    len(e.order),
		Results:  append([]domain.LotResult(nil), e.resultsLog...),
		Teams:    e.ledger.Snapshot(),
	}
}

// Subscribe registers an observer. Its first event is a snapshot of
// the run as of subscription; everything after is live.
func (e *Engine) Subscribe() *Subscription {
	e.lock()
	defer e.unlock()

	return e.hub.Subscribe(&domain.AuctionEvent{
		Type:      domain.EventSnapshot,
		RunID:     e.cfg.RunID,
		Snapshot:  e.snapshotLocked(),
		Timestamp: time.Now(),
	})
}

func (e *Engine) snapshotLocked() *domain.RunSnapshot {
	snap := &domain.RunSnapshot{
		RunID:   e.cfg.RunID,
		State:   e.state,
		Seq:     e.seq,
		Order:   append([]int(nil), e.order...),
		Cursor:  e.cursor,
		Teams:   e.ledger.Snapshot(),
		Results: append([]domain.LotResult(nil), e.resultsLog...),
		SavedAt: time.Now(),
	}
	if lot := e.lots.Current(); lot != nil {
		snap.Lot = lot.Clone()
	}
	return snap
}

// Snapshot returns the full serializable run state.
func (e *Engine) Snapshot() *domain.RunSnapshot {
	e.lock()
	defer e.unlock()
	return e.snapshotLocked()
}

// Restore rehydrates the engine from a stored snapshot. The catalog
// must be the one the snapshot was taken against.
func (e *Engine) Restore(snap *domain.RunSnapshot) error {
	e.lock()
	defer e.unlock()

	if snap == nil {
		return domain.ErrSnapshotNotFound
	}
	e.state = snap.State
	e.seq = snap.Seq
	e.order = append([]int(nil), snap.Order...)
	e.cursor = snap.Cursor
	e.resultsLog = append(e.resultsLog[:0], snap.Results...)
	teams := make(map[string]*domain.Team, len(snap.Teams))
	for id, team := range snap.Teams {
		teams[id] = team.Clone()
	}
	e.ledger = NewLedger(teams, e.log)
	if snap.Lot != nil {
		e.lots.Restore(snap.Lot.Clone())
	} else {
		e.lots.Restore(nil)
	}
	e.log.Info("run restored from snapshot", "run_id", snap.RunID, "state", snap.State.String(),
		"cursor", snap.Cursor)
	return nil
}

func (e *Engine) persistLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveSnapshot(ctx, e.snapshotLocked()); err != nil {
		e.log.Error("failed to save run snapshot", "run_id", e.cfg.RunID, "error", err)
	}
}
