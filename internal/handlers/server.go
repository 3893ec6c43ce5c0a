// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/database"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/jason-s-yu/meitra/internal/game"
	"github.com/jason-s-yu/meitra/internal/middleware"
	"github.com/sirupsen/logrus"
)

// StatsReader loads the record of a player.
type StatsReader interface {
	GetUserStats(ctx context.Context, userID uuid.UUID) (database.UserMatchStats, error)
}

// Subprotocol is the websocket subprotocol match clients must request.
const Subprotocol = "meitra"

// MatchServer owns the running matches and their websocket hubs.
type MatchServer struct {
	Store    *game.MatchStore
	Defaults game.HouseRules

	// Publisher and Recorder are handed to every new match; either may be nil.
	Publisher game.Publisher
	Recorder  game.Recorder

	// Stats serves player statistics; nil disables the endpoint.
	Stats StatsReader

	// AllowedOrigins restricts CORS and websocket origins. Empty allows all.
	AllowedOrigins []string

	// EndGrace is how long a finished match stays reachable so clients can
	// read the final state.
	EndGrace time.Duration

	// MatchOptions are passed to the engine of every new match.
	MatchOptions []engine.Option

	Logger *logrus.Logger

	mu   sync.Mutex
	hubs map[uuid.UUID]*matchHub
}

func NewMatchServer(logger *logrus.Logger, defaults game.HouseRules) *MatchServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MatchServer{
		Store:    game.NewMatchStore(),
		Defaults: defaults,
		EndGrace: 30 * time.Second,
		Logger:   logger,
		hubs:     make(map[uuid.UUID]*matchHub),
	}
}

// CreateMatch seats four players, registers the match and deals the first
// round.
func (s *MatchServer) CreateMatch(seats []engine.Seat, rules game.HouseRules) (*game.Match, error) {
	id := uuid.New()
	m, err := game.NewMatch(id, seats, rules, s.Logger, s.MatchOptions...)
	if err != nil {
		return nil, err
	}
	if s.Publisher != nil {
		m.Publisher = s.Publisher
	}
	if s.Recorder != nil {
		m.Recorder = s.Recorder
	}
	// runs with the match lock held; removal locks the match again
	m.OnMatchEnd = func(matchID uuid.UUID, winningTeam int, scores [2]float64) {
		s.Logger.WithFields(logrus.Fields{
			"match":  matchID,
			"winner": winningTeam,
			"scores": scores,
		}).Info("match over")
		time.AfterFunc(s.EndGrace, func() { s.removeMatch(matchID) })
	}

	hub := newMatchHub(id, s.Logger)
	hub.attach(m)
	s.mu.Lock()
	s.hubs[id] = hub
	s.mu.Unlock()
	s.Store.AddMatch(m)

	if err := m.Start(); err != nil {
		s.removeMatch(id)
		return nil, err
	}
	return m, nil
}

func (s *MatchServer) hub(id uuid.UUID) (*matchHub, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hubs[id]
	return h, ok
}

// removeMatch drops a match and disconnects its clients.
func (s *MatchServer) removeMatch(id uuid.UUID) {
	s.Store.DeleteMatch(id)
	s.mu.Lock()
	h, ok := s.hubs[id]
	delete(s.hubs, id)
	s.mu.Unlock()
	if ok {
		h.closeAll(MatchOverError, "Match is over.")
	}
}

// Shutdown closes every match and connection.
func (s *MatchServer) Shutdown() {
	s.Store.CloseAll()
	s.mu.Lock()
	hubs := s.hubs
	s.hubs = make(map[uuid.UUID]*matchHub)
	s.mu.Unlock()
	for _, h := range hubs {
		h.closeAll(websocket.StatusGoingAway, "Server shutting down.")
	}
}

// Routes builds the HTTP surface of the server.
func (s *MatchServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(middleware.LogMiddleware(s.Logger))

	r.Post("/session", s.CreateSessionHandler)
	r.Route("/match", func(r chi.Router) {
		r.Post("/create", s.CreateMatchHandler)
		r.Get("/{id}", s.GetMatchHandler)
		r.Get("/{id}/ws", s.MatchWSHandler)
	})
	r.Get("/player/{id}/stats", s.PlayerStatsHandler)
	return r
}

func (s *MatchServer) corsOrigins() []string {
	if len(s.AllowedOrigins) == 0 {
		return []string{"https://*", "http://*"}
	}
	return s.AllowedOrigins
}

// originPatterns are the host patterns websocket.Accept checks the Origin
// header against.
func (s *MatchServer) originPatterns() []string {
	if len(s.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(s.AllowedOrigins))
	for _, o := range s.AllowedOrigins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, o)
	}
	return patterns
}
