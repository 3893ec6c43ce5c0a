// internal/handlers/match.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/auth"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/jason-s-yu/meitra/internal/game"
)

type sessionRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Token  string    `json:"token"`
}

// CreateSessionHandler issues a guest identity. A caller that already holds
// a valid token keeps its user id and may change its name.
func (s *MatchServer) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadPayload, err))
			return
		}
	}

	userID, name, err := authenticate(r)
	if err != nil {
		userID, name = uuid.New(), "Guest"
	}
	if n := strings.TrimSpace(req.Name); n != "" {
		name = n
	}

	token, err := auth.CreateJWT(userID, name)
	if err != nil {
		s.Logger.Errorf("failed to sign session token: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sessionResponse{UserID: userID, Name: name, Token: token})
}

type seatRequest struct {
	UserID *uuid.UUID `json:"userId,omitempty"`
	Name   string     `json:"name"`
	COM    bool       `json:"com"`
}

type createMatchRequest struct {
	// Seats in seat order. Empty seats the caller against three COM players.
	Seats []seatRequest          `json:"seats"`
	Rules map[string]interface{} `json:"rules"`
}

type seatResponse struct {
	PlayerID uuid.UUID `json:"playerId"`
	Name     string    `json:"name"`
	Seat     int       `json:"seat"`
	Team     int       `json:"team"`
	COM      bool      `json:"com"`
}

type createMatchResponse struct {
	MatchID uuid.UUID       `json:"matchId"`
	Seats   []seatResponse  `json:"seats"`
	Rules   game.HouseRules `json:"rules"`
}

// CreateMatchHandler seats four players and starts a match.
func (s *MatchServer) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, name, err := authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	var req createMatchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadPayload, err))
			return
		}
	}

	seats, err := buildSeats(req.Seats, userID, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rules, err := game.ParseRules(req.Rules, s.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadPayload, err))
		return
	}

	m, err := s.CreateMatch(seats, rules)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidSeats) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	s.Logger.WithField("match", m.ID).Infof("match created by %v", userID)

	resp := createMatchResponse{MatchID: m.ID, Rules: rules}
	for _, p := range m.SyncState(uuid.Nil).Players {
		resp.Seats = append(resp.Seats, seatResponse{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Seat:     p.Seat,
			Team:     p.Team,
			COM:      p.IsCOM,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// buildSeats turns the request into engine seats. COM seats get fresh ids.
func buildSeats(req []seatRequest, creator uuid.UUID, creatorName string) ([]engine.Seat, error) {
	if len(req) == 0 {
		req = []seatRequest{{UserID: &creator, Name: creatorName}, {COM: true}, {COM: true}, {COM: true}}
	}
	if len(req) != engine.PlayerCount {
		return nil, fmt.Errorf("%w: got %d seats", engine.ErrInvalidSeats, len(req))
	}
	seats := make([]engine.Seat, 0, len(req))
	for i, sr := range req {
		seat := engine.Seat{Name: strings.TrimSpace(sr.Name), IsCOM: sr.COM}
		switch {
		case sr.COM:
			seat.ID = uuid.New()
			if seat.Name == "" {
				seat.Name = fmt.Sprintf("COM %d", i+1)
			}
		case sr.UserID == nil || *sr.UserID == uuid.Nil:
			return nil, fmt.Errorf("%w: seat %d needs a userId or com", errBadPayload, i)
		default:
			seat.ID = *sr.UserID
			if seat.Name == "" {
				seat.Name = fmt.Sprintf("Player %d", i+1)
			}
		}
		seats = append(seats, seat)
	}
	return seats, nil
}

// GetMatchHandler returns the caller's view of a match. Callers without a
// seat get the spectator view.
func (s *MatchServer) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: match id", errBadPayload))
		return
	}
	m, ok := s.Store.GetMatch(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}

	viewer := uuid.Nil
	if userID, _, err := authenticate(r); err == nil && m.HasPlayer(userID) {
		viewer = userID
	}
	writeJSON(w, http.StatusOK, m.SyncState(viewer))
}
