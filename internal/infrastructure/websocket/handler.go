package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"player-auction/internal/domain"
	"player-auction/internal/services"
	"player-auction/pkg/logger"
	"player-auction/pkg/utils"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// bidFrame is the only inbound message kind: a bid from the
// connection's team.
type bidFrame struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type WebSocketHandler struct {
	engine      *services.Engine
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewWebSocketHandler(engine *services.Engine, connManager domain.ConnectionManager, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		engine:      engine,
		connManager: connManager,
		log:         log,
	}
}

// HandleConnection upgrades the request and streams auction events to
// the client. The first frame is always the current run snapshot.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("team_id")
	observerID := utils.GenerateID("observer")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, observerID, teamID, h.log)
	if err := h.connManager.RegisterConnection(wsConn); err != nil {
		h.log.Error("failed to register connection", "error", err)
		conn.Close()
		return
	}

	sub := h.engine.Subscribe()
	go h.forwardEvents(wsConn, sub)
	go h.readLoop(wsConn, sub, teamID, observerID)
}

func (h *WebSocketHandler) forwardEvents(conn *WebSocketConnection, sub *services.Subscription) {
	for event := range sub.Events() {
		if err := conn.Send(event); err != nil {
			h.log.Error("failed to forward event", "observer_id", conn.ObserverID(), "error", err)
			return
		}
	}
}

func (h *WebSocketHandler) readLoop(conn *WebSocketConnection, sub *services.Subscription, teamID, observerID string) {
	defer func() {
		sub.Close()
		h.connManager.UnregisterConnection(observerID)
		conn.Close()
	}()

	for {
		var frame bidFrame
		if err := conn.conn.ReadJSON(&frame); err != nil {
			h.log.Debug("connection closed", "observer_id", observerID, "error", err)
			return
		}
		if frame.Type != "bid" {
			continue
		}
		if teamID == "" {
			conn.Send(map[string]interface{}{
				"type":   "bid_rejected",
				"reason": "unknown_team",
			})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		accepted, err := h.engine.SubmitBid(ctx, teamID, frame.Amount)
		cancel()

		if err != nil {
			h.rejectBid(teamID, frame.Amount, err)
			continue
		}
		h.log.Debug("bid accepted over websocket", "team_id", teamID, "seq", accepted.Seq)
	}
}

// rejectBid reports the typed failure to the bidding team's
// connections; accepted bids reach everyone through the broadcast
// stream instead.
func (h *WebSocketHandler) rejectBid(teamID string, amount float64, err error) {
	reply := map[string]interface{}{
		"type":   "bid_rejected",
		"reason": domain.ReasonCode(err),
		"amount": amount,
	}
	if errors.Is(err, domain.ErrInsufficientBid) {
		reply["required_minimum"] = h.engine.CurrentLotSnapshot().MinBid
	}
	if sendErr := h.connManager.NotifyTeam(teamID, reply); sendErr != nil {
		h.log.Error("failed to send rejection", "team_id", teamID, "error", sendErr)
	}
}
