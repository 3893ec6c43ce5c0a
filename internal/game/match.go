// internal/game/match.go
package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/autoplay"
	"github.com/jason-s-yu/meitra/internal/cache"
	"github.com/jason-s-yu/meitra/internal/database"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyStarted = errors.New("match already started")
	ErrNotStarted     = errors.New("match not started")
	ErrClosed         = errors.New("match closed")
)

// OnMatchEndFunc handles a finished match, e.g. to drop it from the registry.
type OnMatchEndFunc func(matchID uuid.UUID, winningTeam int, scores [2]float64)

// Publisher receives every accepted action for the historian.
type Publisher interface {
	PublishMatchAction(ctx context.Context, record cache.MatchActionRecord) error
}

// Recorder persists the dealt state and the final result of a match.
type Recorder interface {
	RecordStart(ctx context.Context, matchID uuid.UUID, initialState []byte) error
	RecordResult(ctx context.Context, res database.MatchResult) error
}

// Match is a running Mei-Tra match. The engine game is only touched with Mu held.
type Match struct {
	ID         uuid.UUID
	HouseRules HouseRules
	Mu         sync.Mutex

	game      *engine.Game
	started   bool
	closed    bool
	connected map[uuid.UUID]bool
	dropped   map[uuid.UUID]bool

	// BroadcastFn is used to send events to all players. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	// OnMatchEnd is invoked with the lock held once a team reaches the target.
	OnMatchEnd OnMatchEndFunc

	Publisher Publisher
	Recorder  Recorder
	Scheduler *autoplay.Scheduler

	roundTimer  *time.Timer
	roundToken  int
	actionIndex int
	seq         int

	logger *logrus.Entry
}

// NewMatch seats four players. opts are passed to the engine, which lets
// tests fix the shuffle and the clock.
func NewMatch(id uuid.UUID, seats []engine.Seat, rules HouseRules, logger *logrus.Logger, opts ...engine.Option) (*Match, error) {
	g, err := engine.NewGame(id, seats, rules.Engine(), opts...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Match{
		ID:         id,
		HouseRules: rules,
		game:       g,
		connected:  make(map[uuid.UUID]bool, engine.PlayerCount),
		dropped:    make(map[uuid.UUID]bool),
		Scheduler:  autoplay.NewScheduler(logger),
		logger:     logger.WithField("match", id),
	}, nil
}

// Start deals the first round.
func (m *Match) Start() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if m.closed {
		return ErrClosed
	}
	evs, err := m.game.Start()
	if err != nil {
		return err
	}
	m.started = true

	seats := make([]string, 0, len(m.game.Players))
	for _, p := range m.game.Players {
		seats = append(seats, p.ID.String())
	}
	m.logAction(uuid.Nil, actionMatchStart, map[string]interface{}{"seats": seats})
	m.persistInitialState()
	m.logger.Info("match started")

	m.dispatch(evs)
	m.afterEvents()
	return nil
}

// HandleCommand applies a player command. Rejected commands change nothing
// and the error is returned to the caller only.
func (m *Match) HandleCommand(cmd engine.Command) ([]engine.Event, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.applyLocked(cmd)
}

func (m *Match) applyLocked(cmd engine.Command) ([]engine.Event, error) {
	if !m.started {
		return nil, ErrNotStarted
	}
	if m.closed {
		return nil, ErrClosed
	}
	actor := cmd.Actor()
	name, payload := describeCommand(cmd)
	log := m.logger.WithFields(logrus.Fields{"player": actor, "command": name})

	evs, err := m.game.Apply(cmd)
	if err != nil {
		log.Debugf("command rejected: %v", err)
		return nil, err
	}
	m.Scheduler.Clear(m.ID, actor)
	m.logAction(actor, name, payload)
	log.Debugf("command accepted, %d events", len(evs))

	m.dispatch(evs)
	m.afterEvents()
	return evs, nil
}

// afterEvents arms whatever has to happen next without a player: the next
// deal, the match end, or a COM move.
// Assumes lock is held.
func (m *Match) afterEvents() {
	switch m.game.Phase {
	case engine.PhaseWaiting:
		m.scheduleNextRound()
	case engine.PhaseMatchOver:
		m.endMatch()
	default:
		m.scheduleCom()
	}
}

// autoplays reports whether the server acts for p.
func (m *Match) autoplays(p *engine.Player) bool {
	return p.IsCOM || (m.HouseRules.ComTakeover && m.dropped[p.ID])
}

// scheduleCom queues the move of the current seat when it is server-driven.
// Assumes lock is held.
func (m *Match) scheduleCom() {
	if m.closed {
		return
	}
	cur := m.game.CurrentPlayer()
	if cur == nil || !m.autoplays(cur) {
		return
	}
	playerID := cur.ID
	m.Scheduler.Schedule(m.ID, playerID, m.HouseRules.ComDelay(), func() {
		m.runCom(playerID)
	})
}

// runCom plays one policy move for playerID if the seat is still due to act.
func (m *Match) runCom(playerID uuid.UUID) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	p := m.game.PlayerByID(playerID)
	if m.closed || p == nil || !m.autoplays(p) {
		return
	}
	policy := autoplay.Policy{Bid: m.HouseRules.ComBids}
	cmd := policy.Decide(m.game, playerID)
	if cmd == nil {
		return
	}
	if _, err := m.applyLocked(cmd); err != nil {
		m.logger.WithField("player", playerID).Errorf("COM command %T rejected: %v", cmd, err)
	}
}

// scheduleNextRound deals the next round after the configured pause. Reports
// during the pause do not restart it.
// Assumes lock is held.
func (m *Match) scheduleNextRound() {
	if m.roundTimer != nil {
		return
	}
	m.roundToken++
	token := m.roundToken
	m.roundTimer = time.AfterFunc(m.HouseRules.RoundDelay(), func() {
		m.advanceRound(token)
	})
}

func (m *Match) advanceRound(token int) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.closed || token != m.roundToken || m.game.Phase != engine.PhaseWaiting {
		m.logger.Debugf("stale round timer %d ignored", token)
		return
	}
	m.roundTimer = nil
	evs, err := m.game.StartNextRound()
	if err != nil {
		m.logger.Errorf("failed to start next round: %v", err)
		return
	}
	m.logAction(uuid.Nil, actionNextRound, map[string]interface{}{"round": m.game.Round})
	m.dispatch(evs)
	m.afterEvents()
}

func (m *Match) stopRoundTimer() {
	if m.roundTimer != nil {
		m.roundTimer.Stop()
		m.roundTimer = nil
	}
}

// endMatch stops every pending task and hands the result to the recorder.
// Assumes lock is held.
func (m *Match) endMatch() {
	m.stopRoundTimer()
	m.Scheduler.ClearMatch(m.ID)

	team := *m.game.WinningTeam
	scores := m.game.TeamTotals()
	m.logAction(uuid.Nil, cache.ActionMatchEnd, map[string]interface{}{
		"winningTeam": team,
		"scores":      scores,
		"round":       m.game.Round,
	})
	m.persistResult(team, scores)
	m.logger.WithFields(logrus.Fields{"winningTeam": team, "scores": scores}).Info("match over")

	if m.OnMatchEnd != nil {
		m.OnMatchEnd(m.ID, team, scores)
	}
}

// Close cancels timers and COM tasks of an abandoned match.
func (m *Match) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.closed = true
	m.stopRoundTimer()
	m.Scheduler.ClearMatch(m.ID)
}

// HandleConnect marks a player as connected and sends them the current state.
func (m *Match) HandleConnect(playerID uuid.UUID) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.game.PlayerByID(playerID) == nil {
		return engine.ErrUnknownPlayer
	}
	m.connected[playerID] = true
	wasDropped := m.dropped[playerID]
	delete(m.dropped, playerID)
	if wasDropped {
		m.Scheduler.Clear(m.ID, playerID)
	}
	m.logAction(playerID, actionConnect, nil)

	ev := m.newEvent(EventPlayerConnected)
	ev.User = &playerID
	m.fireEvent(ev)
	m.sendSyncState(playerID)
	return nil
}

// HandleDisconnect processes a player's disconnection. With ComTakeover the
// seat is played by the server until the player returns.
func (m *Match) HandleDisconnect(playerID uuid.UUID) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if !m.connected[playerID] {
		return
	}
	delete(m.connected, playerID)
	m.logAction(playerID, actionDisconnect, nil)

	ev := m.newEvent(EventPlayerDropped)
	ev.User = &playerID
	m.fireEvent(ev)

	if !m.started || m.game.Phase == engine.PhaseMatchOver || !m.HouseRules.ComTakeover {
		return
	}
	m.logger.WithField("player", playerID).Info("player dropped, COM takes over")
	m.dropped[playerID] = true
	m.scheduleCom()
}

// HasPlayer reports whether id holds a seat.
func (m *Match) HasPlayer(id uuid.UUID) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.game.PlayerByID(id) != nil
}

// Phase returns the current engine phase.
func (m *Match) Phase() engine.Phase {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.game.Phase
}

// logAction publishes an action record for the historian. Publishing runs in
// its own goroutine and is skipped without a publisher.
// Assumes lock is held.
func (m *Match) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	m.actionIndex++
	if m.Publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.MatchActionRecord{
		MatchID:       m.ID,
		ActionIndex:   m.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.MatchActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.Publisher.PublishMatchAction(ctx, rec); err != nil {
			m.logger.Warnf("failed to publish action %d: %v", rec.ActionIndex, err)
		}
	}(record)
}

// Assumes lock is held.
func (m *Match) persistInitialState() {
	if m.Recorder == nil {
		return
	}
	snapshot, err := json.Marshal(m.game)
	if err != nil {
		m.logger.Errorf("failed to marshal initial state: %v", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Recorder.RecordStart(ctx, m.ID, snapshot); err != nil {
			m.logger.Errorf("failed to record match start: %v", err)
		}
	}()
}

// Assumes lock is held.
func (m *Match) persistResult(team int, scores [2]float64) {
	if m.Recorder == nil {
		return
	}
	snapshot, err := json.Marshal(m.game)
	if err != nil {
		m.logger.Errorf("failed to marshal final state: %v", err)
	}
	res := database.MatchResult{
		MatchID:     m.ID,
		WinningTeam: team,
		Scores:      scores,
		FinalState:  snapshot,
	}
	for _, p := range m.game.Players {
		res.Players = append(res.Players, database.ResultPlayer{ID: p.ID, Team: p.Team, IsCOM: p.IsCOM})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Recorder.RecordResult(ctx, res); err != nil {
			m.logger.Errorf("failed to record match result: %v", err)
		}
	}()
}
