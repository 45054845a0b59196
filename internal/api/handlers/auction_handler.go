package handlers

import (
	"errors"
	"net/http"

	"player-auction/internal/domain"
	"player-auction/internal/services"
	"player-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuctionHandler exposes the engine's command and query operations
// over REST. Command failures come back as a stable reason code so
// clients can render "raise at least X" and "insufficient purse"
// distinctly.
type AuctionHandler struct {
	engine *services.Engine
	log    logger.Logger
}

func NewAuctionHandler(engine *services.Engine, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{engine: engine, log: log}
}

func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/auction/start", h.StartAuction)
	g.POST("/auction/bids", h.SubmitBid)
	g.POST("/auction/sell", h.SellCurrentLot)
	g.POST("/auction/unsold", h.MarkUnsold)
	g.POST("/auction/skip", h.SkipCurrentLot)
	g.POST("/auction/pause", h.PauseAuction)
	g.POST("/auction/resume", h.ResumeAuction)
	g.GET("/auction/lot", h.CurrentLot)
	g.GET("/auction/summary", h.RunSummary)
	g.GET("/teams/:id", h.TeamLedger)
	g.PUT("/teams/:id/purse", h.CorrectPurse)
	g.POST("/teams/:id/claim", h.ClaimTeam)
	g.DELETE("/teams/:id/claim", h.ReleaseTeam)
}

type bidRequest struct {
	TeamID string  `json:"team_id"`
	Amount float64 `json:"amount"`
}

type purseRequest struct {
	Amount float64 `json:"amount"`
}

type claimRequest struct {
	Owner string `json:"owner"`
}

func (h *AuctionHandler) StartAuction(c echo.Context) error {
	if err := h.engine.StartAuction(c.Request().Context()); err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, h.engine.CurrentLotSnapshot())
}

func (h *AuctionHandler) SubmitBid(c echo.Context) error {
	var req bidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bid must be positive"})
	}

	accepted, err := h.engine.SubmitBid(c.Request().Context(), req.TeamID, req.Amount)
	if err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, accepted)
}

func (h *AuctionHandler) SellCurrentLot(c echo.Context) error {
	result, err := h.engine.SellCurrentLot(c.Request().Context())
	if err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AuctionHandler) MarkUnsold(c echo.Context) error {
	result, err := h.engine.MarkUnsold(c.Request().Context())
	if err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AuctionHandler) SkipCurrentLot(c echo.Context) error {
	result, err := h.engine.SkipCurrentLot(c.Request().Context())
	if err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AuctionHandler) PauseAuction(c echo.Context) error {
	if err := h.engine.PauseAuction(c.Request().Context()); err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"state": "paused"})
}

func (h *AuctionHandler) ResumeAuction(c echo.Context) error {
	if err := h.engine.ResumeAuction(c.Request().Context()); err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"state": "running"})
}

func (h *AuctionHandler) CorrectPurse(c echo.Context) error {
	var req purseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Amount < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "purse must be non-negative"})
	}

	if err := h.engine.CorrectPurse(c.Request().Context(), c.Param("id"), req.Amount); err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"team_id": c.Param("id")})
}

func (h *AuctionHandler) ClaimTeam(c echo.Context) error {
	var req claimRequest
	if err := c.Bind(&req); err != nil || req.Owner == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "owner required"})
	}

	if err := h.engine.ClaimTeam(c.Param("id"), req.Owner); err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"team_id": c.Param("id"), "owner": req.Owner})
}

func (h *AuctionHandler) ReleaseTeam(c echo.Context) error {
	if err := h.engine.ReleaseTeam(c.Param("id")); err != nil {
		return h.commandError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuctionHandler) CurrentLot(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.CurrentLotSnapshot())
}

func (h *AuctionHandler) RunSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.RunSummary())
}

func (h *AuctionHandler) TeamLedger(c echo.Context) error {
	team, err := h.engine.TeamLedgerSnapshot(c.Param("id"))
	if err != nil {
		return h.commandError(c, err)
	}
	return c.JSON(http.StatusOK, team)
}

func (h *AuctionHandler) commandError(c echo.Context, err error) error {
	reason := domain.ReasonCode(err)
	status := http.StatusUnprocessableEntity

	switch {
	case errors.Is(err, domain.ErrUnknownTeam):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrTeamTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrContentionTimeout):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNegativeBalance):
		status = http.StatusInternalServerError
	case reason == "internal":
		h.log.Error("command failed", "error", err)
		status = http.StatusInternalServerError
	}

	return c.JSON(status, map[string]string{
		"error":  err.Error(),
		"reason": reason,
	})
}
