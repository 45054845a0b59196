package websocket

import (
	"sync"

	"player-auction/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketConnection struct {
	conn       *websocket.Conn
	writeMu    sync.Mutex // gorilla allows one concurrent writer
	observerID string
	teamID     string
	log        logger.Logger
}

func NewWebSocketConnection(conn *websocket.Conn, observerID, teamID string, log logger.Logger) *WebSocketConnection {
	return &WebSocketConnection{
		conn:       conn,
		observerID: observerID,
		teamID:     teamID,
		log:        log,
	}
}

func (wsc *WebSocketConnection) Send(message interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) Close() error {
	return wsc.conn.Close()
}

func (wsc *WebSocketConnection) ObserverID() string {
	return wsc.observerID
}

func (wsc *WebSocketConnection) TeamID() string {
	return wsc.teamID
}
