// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	outboxSize   = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// client is one websocket connection of a seated player. Frames are queued
// on out and written in order by writePump.
type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	out    chan []byte

	closeOnce sync.Once
	kicked    chan struct{}
}

func newClient(userID uuid.UUID, conn *websocket.Conn) *client {
	return &client{
		userID: userID,
		conn:   conn,
		out:    make(chan []byte, outboxSize),
		kicked: make(chan struct{}),
	}
}

// kick closes the connection with code. The close handshake runs in its own
// goroutine because callers may hold the hub lock.
func (c *client) kick(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.kicked)
		if c.conn != nil {
			go c.conn.Close(code, reason)
		}
	})
}

// trySend queues a frame unless the outbox is full.
func (c *client) trySend(data []byte) bool {
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

// matchHub fans match events out to the connected clients. Its lock is
// independent of the match lock, which is held whenever the match calls
// broadcast or sendTo.
type matchHub struct {
	matchID uuid.UUID
	mu      sync.Mutex
	clients map[uuid.UUID]*client
	logger  *logrus.Entry
}

func newMatchHub(matchID uuid.UUID, logger *logrus.Logger) *matchHub {
	return &matchHub{
		matchID: matchID,
		clients: make(map[uuid.UUID]*client),
		logger:  logger.WithField("match", matchID),
	}
}

// attach routes the match's events through the hub.
func (h *matchHub) attach(m *game.Match) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.BroadcastFn = h.broadcast
	m.BroadcastToPlayerFn = h.sendTo
}

// register makes c the connection of its user, kicking an older one.
func (h *matchHub) register(c *client) {
	h.mu.Lock()
	old := h.clients[c.userID]
	h.clients[c.userID] = c
	h.mu.Unlock()
	if old != nil {
		old.kick(ReplacedError, "Connection replaced by a newer one.")
	}
}

// unregister removes c and reports whether it was still the user's current
// connection.
func (h *matchHub) unregister(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] != c {
		return false
	}
	delete(h.clients, c.userID)
	return true
}

// closeAll kicks every client, used once the match is removed.
func (h *matchHub) closeAll(code websocket.StatusCode, reason string) {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[uuid.UUID]*client)
	h.mu.Unlock()
	for _, c := range all {
		c.kick(code, reason)
	}
}

func (h *matchHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *matchHub) broadcast(ev game.GameEvent) {
	data := game.ConvertEventToBytes(ev)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.enqueue(c, data)
	}
}

func (h *matchHub) sendTo(playerID uuid.UUID, ev game.GameEvent) {
	data := game.ConvertEventToBytes(ev)
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[playerID]; ok {
		h.enqueue(c, data)
	}
}

// enqueue never blocks: a client that cannot keep up is disconnected and
// resyncs when it reconnects.
// Assumes h.mu is held.
func (h *matchHub) enqueue(c *client, data []byte) {
	select {
	case c.out <- data:
	default:
		h.logger.WithField("player", c.userID).Warn("outbox full, dropping slow client")
		c.kick(websocket.StatusTryAgainLater, "Too slow to keep up with the match.")
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func writePump(ctx context.Context, c *client, logger *logrus.Entry) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.kicked:
			return
		case data := <-c.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket: %v", err)
				c.kick(websocket.StatusGoingAway, "Write failed.")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed, assuming disconnect: %v", err)
				c.kick(websocket.StatusGoingAway, "Ping failed.")
				return
			}
		}
	}
}
