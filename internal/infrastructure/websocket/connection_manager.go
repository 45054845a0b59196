package websocket

import (
	"sync"

	"player-auction/internal/domain"
	"player-auction/pkg/logger"
)

// ConnectionManager tracks every live observer connection for the
// single auction room, indexed by observer and by team.
type ConnectionManager struct {
	connections map[string]domain.WebSocketConnection   // observerID -> connection
	teamConns   map[string][]domain.WebSocketConnection // teamID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]domain.WebSocketConnection),
		teamConns:   make(map[string][]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.connections[conn.ObserverID()] = conn
	if teamID := conn.TeamID(); teamID != "" {
		cm.teamConns[teamID] = append(cm.teamConns[teamID], conn)
	}

	cm.log.Info("connection registered", "observer_id", conn.ObserverID(), "team_id", conn.TeamID())
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(observerID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	conn, exists := cm.connections[observerID]
	if !exists {
		return nil
	}
	delete(cm.connections, observerID)

	if teamID := conn.TeamID(); teamID != "" {
		var kept []domain.WebSocketConnection
		for _, existing := range cm.teamConns[teamID] {
			if existing.ObserverID() != observerID {
				kept = append(kept, existing)
			}
		}
		if len(kept) == 0 {
			delete(cm.teamConns, teamID)
		} else {
			cm.teamConns[teamID] = kept
		}
	}

	cm.log.Info("connection unregistered", "observer_id", observerID)
	return nil
}

// NotifyTeam sends a targeted message to every connection a team has
// open. Broadcast traffic goes through the hub's subscriptions instead.
func (cm *ConnectionManager) NotifyTeam(teamID string, message interface{}) error {
	cm.mutex.RLock()
	conns := append([]domain.WebSocketConnection(nil), cm.teamConns[teamID]...)
	cm.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(message); err != nil {
			cm.log.Error("failed to notify team", "team_id", teamID, "error", err)
		}
	}
	return nil
}

func (cm *ConnectionManager) CloseAll() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for observerID, conn := range cm.connections {
		if err := conn.Close(); err != nil {
			cm.log.Error("failed to close connection", "observer_id", observerID, "error", err)
		}
	}
	cm.connections = make(map[string]domain.WebSocketConnection)
	cm.teamConns = make(map[string][]domain.WebSocketConnection)
	return nil
}
