// internal/handlers/match_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/game"
	"github.com/jason-s-yu/meitra/internal/middleware"
	"github.com/sirupsen/logrus"
)

// MatchWSHandler upgrades the HTTP connection to a websocket for a seated
// player. It authenticates the user, registers the connection with the
// match hub and runs the read loop until the client goes away.
func (s *MatchServer) MatchWSHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, fmt.Sprintf("Client must use the '%s' subprotocol.", Subprotocol))
		return
	}

	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		c.Close(InvalidMatchIDError, "Invalid match id.")
		return
	}
	m, ok := s.Store.GetMatch(matchID)
	hub, hubOK := s.hub(matchID)
	if !ok || !hubOK {
		c.Close(InvalidMatchIDError, "Match not found.")
		return
	}

	userID, _, err := authenticate(r)
	if err != nil {
		s.Logger.Warnf("websocket auth failed for match %s: %v", matchID, err)
		c.Close(InvalidAuthTokenError, "Authentication failed.")
		return
	}
	if !m.HasPlayer(userID) {
		c.Close(NotSeatedError, "You are not a player in this match.")
		return
	}

	logger := s.Logger.WithFields(logrus.Fields{"match": matchID, "player": userID})
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	cl := newClient(userID, c)

	// register before connecting so the sync frame has somewhere to go
	hub.register(cl)
	if err := m.HandleConnect(userID); err != nil {
		hub.unregister(cl)
		c.Close(NotSeatedError, err.Error())
		return
	}
	go writePump(ctx, cl, logger)

	err = readMessages(ctx, cl, m, logger)

	if hub.unregister(cl) {
		m.HandleDisconnect(userID)
	}
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
	c.Close(websocket.StatusNormalClosure, "")
}

// readMessages decodes client frames and applies them to the match until the
// connection fails or ctx is cancelled.
func readMessages(ctx context.Context, cl *client, m *game.Match, logger *logrus.Entry) error {
	for {
		msgType, data, err := cl.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(cl, logger, newErrorFrame("", fmt.Errorf("%w: %v", errBadPayload, err)))
			continue
		}
		handleMessage(cl, m, msg, logger)
	}
}

func handleMessage(cl *client, m *game.Match, msg ClientMessage, logger *logrus.Entry) {
	switch msg.Type {
	case msgPing:
		reply(cl, logger, map[string]string{"type": "pong"})
		return
	case msgSync:
		st := m.SyncState(cl.userID)
		reply(cl, logger, game.GameEvent{Type: game.EventPrivateSyncState, MatchID: m.ID, State: &st})
		return
	}

	cmd, err := msg.Command(cl.userID)
	if err == nil {
		_, err = m.HandleCommand(cmd)
	}
	if err != nil {
		if errors.Is(err, errUnknownMessage) {
			logger.Warnf("unknown message type %q", msg.Type)
		}
		reply(cl, logger, newErrorFrame(msg.Type, err))
	}
}

// reply queues a frame for this client only.
func reply(cl *client, logger *logrus.Entry, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("failed to marshal reply: %v", err)
		return
	}
	if !cl.trySend(data) {
		logger.Warn("outbox full, reply dropped")
	}
}
