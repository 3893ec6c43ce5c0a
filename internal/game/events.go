// internal/game/events.go
package game

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/sirupsen/logrus"
)

// GameEventType is the wire type of an outbound frame. Engine events use
// their EventKind; the constants below are service-level frames.
type GameEventType string

const (
	EventPrivateSyncState GameEventType = "private-sync-state"
	EventPlayerConnected  GameEventType = "player-connected"
	EventPlayerDropped    GameEventType = "player-dropped"
)

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	MatchID uuid.UUID     `json:"matchId"`
	Seq     int           `json:"seq"`
	User    *uuid.UUID    `json:"user,omitempty"`
	Payload engine.Event  `json:"payload,omitempty"`
	State   *ObfGameState `json:"state,omitempty"`
}

// ConvertEventToBytes marshals a GameEvent into JSON bytes.
// Logs a warning and returns empty JSON "{}" on marshalling error.
func ConvertEventToBytes(ev GameEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.WithField("type", ev.Type).Warnf("failed to marshal GameEvent: %v", err)
		return []byte("{}")
	}
	return data
}

// dispatch wraps engine events and fans them out by recipient.
// Assumes lock is held.
func (m *Match) dispatch(evs []engine.Event) {
	for _, ev := range evs {
		ge := m.newEvent(GameEventType(ev.Kind()))
		ge.Payload = ev
		if to := ev.Recipient(); to != uuid.Nil {
			m.fireEventToPlayer(to, ge)
			continue
		}
		m.fireEvent(ge)
	}
}

func (m *Match) newEvent(t GameEventType) GameEvent {
	m.seq++
	return GameEvent{Type: t, MatchID: m.ID, Seq: m.seq}
}

// fireEvent broadcasts an event to all connected players.
// Assumes lock is held.
func (m *Match) fireEvent(ev GameEvent) {
	if m.BroadcastFn == nil {
		m.logger.Warnf("BroadcastFn is nil, cannot broadcast event type %s", ev.Type)
		return
	}
	m.BroadcastFn(ev)
}

// fireEventToPlayer sends an event only to a specific player. Players that
// are not connected are skipped; they resync on connect.
// Assumes lock is held.
func (m *Match) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if m.BroadcastToPlayerFn == nil {
		m.logger.Warnf("BroadcastToPlayerFn is nil, cannot send private event type %s to player %s", ev.Type, playerID)
		return
	}
	if !m.connected[playerID] {
		return
	}
	m.BroadcastToPlayerFn(playerID, ev)
}

// sendSyncState sends the obfuscated match state to a specific player.
// Assumes lock is held.
func (m *Match) sendSyncState(playerID uuid.UUID) {
	state := m.obfuscatedState(playerID)
	ev := m.newEvent(EventPrivateSyncState)
	ev.State = &state
	m.fireEventToPlayer(playerID, ev)
}
