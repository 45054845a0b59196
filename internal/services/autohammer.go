package services

import (
	"context"
	"errors"
	"time"

	"player-auction/internal/domain"
	"player-auction/pkg/logger"

	"github.com/robfig/cron/v3"
)

// AutoHammer is the automated arbiter: once a lot has sat idle past
// the hammer window it is sold to the standing high bidder, or marked
// unsold if nobody bid. Admins can still resolve lots manually; the
// hammer just loses the race and gets ErrInvalidState.
type AutoHammer struct {
	cron   *cron.Cron
	engine *Engine
	window time.Duration
	log    logger.Logger
}

func NewAutoHammer(engine *Engine, window time.Duration, log logger.Logger) *AutoHammer {
	return &AutoHammer{
		cron:   cron.New(cron.WithSeconds()),
		engine: engine,
		window: window,
		log:    log,
	}
}

func (h *AutoHammer) Start(ctx context.Context) error {
	h.log.Info("starting auto hammer", "window", h.window.String())
	_, err := h.cron.AddFunc("@every 1s", func() {
		h.tick(ctx)
	})
	if err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

func (h *AutoHammer) Stop() error {
	h.log.Info("stopping auto hammer")
	h.cron.Stop()
	return nil
}

func (h *AutoHammer) tick(ctx context.Context) {
	result, err := h.engine.HammerIdleLot(ctx, h.window)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidState) {
			h.log.Error("auto hammer failed to finalize lot", "error", err)
		}
		return
	}
	h.log.Info("hammer fell", "player_id", result.PlayerID, "outcome", result.Outcome.String())
}
