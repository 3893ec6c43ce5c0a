// internal/game/match_test.go
package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/cache"
	"github.com/jason-s-yu/meitra/internal/database"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent               // Events sent to everyone
	playerEvents map[uuid.UUID][]GameEvent // Events sent to specific players
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		playerEvents: make(map[uuid.UUID][]GameEvent),
	}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = nil
	mb.playerEvents = make(map[uuid.UUID][]GameEvent)
}

func (mb *mockBroadcaster) public() []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return append([]GameEvent(nil), mb.allEvents...)
}

func (mb *mockBroadcaster) private(playerID uuid.UUID) []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return append([]GameEvent(nil), mb.playerEvents[playerID]...)
}

func (mb *mockBroadcaster) privateCount() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	n := 0
	for _, evs := range mb.playerEvents {
		n += len(evs)
	}
	return n
}

func typesOf(evs []GameEvent) []GameEventType {
	out := make([]GameEventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

// fakePublisher records published actions.
type fakePublisher struct {
	mu      sync.Mutex
	records []cache.MatchActionRecord
}

func (p *fakePublisher) PublishMatchAction(_ context.Context, rec cache.MatchActionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

func (p *fakePublisher) count(actionType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.records {
		if r.ActionType == actionType {
			n++
		}
	}
	return n
}

// fakeRecorder hands recorded snapshots to the test.
type fakeRecorder struct {
	starts  chan []byte
	results chan database.MatchResult
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		starts:  make(chan []byte, 1),
		results: make(chan database.MatchResult, 1),
	}
}

func (r *fakeRecorder) RecordStart(_ context.Context, _ uuid.UUID, state []byte) error {
	r.starts <- state
	return nil
}

func (r *fakeRecorder) RecordResult(_ context.Context, res database.MatchResult) error {
	r.results <- res
	return nil
}

func fastRules() HouseRules {
	rules := DefaultHouseRules()
	rules.RoundDelaySec = 0
	rules.ComDelayMs = 0
	return rules
}

// setupTestMatch seats four players, COM where com[i] is set, with a fixed shuffle.
func setupTestMatch(t *testing.T, rules HouseRules, com [4]bool) (*Match, []uuid.UUID, *mockBroadcaster) {
	t.Helper()
	ids := make([]uuid.UUID, 4)
	seats := make([]engine.Seat, 4)
	for i := range seats {
		ids[i] = uuid.New()
		seats[i] = engine.Seat{ID: ids[i], Name: "p" + string(rune('1'+i)), IsCOM: com[i]}
	}
	m, err := NewMatch(uuid.New(), seats, rules, nil, engine.WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	mb := newMockBroadcaster()
	m.BroadcastFn = mb.broadcastFn
	m.BroadcastToPlayerFn = mb.broadcastToPlayerFn
	t.Cleanup(m.Close)
	return m, ids, mb
}

func connectAll(t *testing.T, m *Match, ids []uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, m.HandleConnect(id))
	}
}

func parseCards(s string) []engine.Card {
	var out []engine.Card
	for _, f := range strings.Fields(s) {
		c, err := engine.ParseCard(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// rigScenario replaces the dealt hands with a round in which seat 0 wins
// eight tricks under Herz and seat 3 takes the last two.
func rigScenario(m *Match) {
	hands := [4]string{
		"AS KS AC KC AH KH AD KD QD QH",
		"5S 8S 5C 8C 5H 8H 5D 8D JD QC",
		"6S 9S 6C 9C 6H 9H 6D 9D JC JH",
		"7S 10S 7C 10C 7H 10H 7D 10D JS JOKER",
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for i, p := range m.game.Players {
		p.Hand = parseCards(hands[i])
		p.HasBroken = engine.IsBrokenHand(p.Hand)
		p.HasRequiredBroken = engine.HoldsAllJacks(p.Hand)
	}
	agari := parseCards("QS")[0]
	m.game.Agari = &agari
}

var scenarioTricks = []string{
	"AS 5S 6S 7S",
	"KS 8S 9S 10S",
	"AC 5C 6C 7C",
	"KC 8C 9C 10C",
	"AH 5H 6H 7H",
	"KH 8H 9H 10H",
	"AD 5D 6D 7D",
	"KD 8D 9D 10D",
	"QD JD JC JS",
	"QC JH JOKER QH",
}

// playBlowAndNegri declares Herz 7 from seat 0 and sets the agari aside.
func playBlowAndNegri(t *testing.T, m *Match, ids []uuid.UUID) {
	t.Helper()
	cmds := []engine.Command{
		engine.DeclareBlow{PlayerID: ids[0], Trump: engine.TrumpHerz, Pairs: 7},
		engine.PassBlow{PlayerID: ids[1]},
		engine.PassBlow{PlayerID: ids[2]},
		engine.PassBlow{PlayerID: ids[3]},
		engine.SelectNegri{PlayerID: ids[0], Card: parseCards("QS")[0]},
	}
	for _, cmd := range cmds {
		_, err := m.HandleCommand(cmd)
		require.NoError(t, err, "%#v", cmd)
	}
}

func playTricks(t *testing.T, m *Match) {
	t.Helper()
	for _, trick := range scenarioTricks {
		for _, c := range parseCards(trick) {
			cur := m.SyncState(uuid.Nil).CurrentPlayerID
			_, err := m.HandleCommand(engine.PlayCard{PlayerID: cur, Card: c})
			require.NoError(t, err, "playing %s", c)
		}
	}
}

func TestStartDealsPrivately(t *testing.T) {
	m, ids, mb := setupTestMatch(t, fastRules(), [4]bool{})
	connectAll(t, m, ids)
	mb.clear()

	require.NoError(t, m.Start())
	assert.ErrorIs(t, m.Start(), ErrAlreadyStarted)

	for _, id := range ids {
		evs := mb.private(id)
		require.Len(t, evs, 1)
		assert.Equal(t, GameEventType(engine.KindHandDealt), evs[0].Type)
		dealt, ok := evs[0].Payload.(engine.HandDealt)
		require.True(t, ok)
		assert.Len(t, dealt.Hand, engine.HandSize)
	}
	types := typesOf(mb.public())
	assert.Equal(t, []GameEventType{GameEventType(engine.KindNewRoundStarted), GameEventType(engine.KindTurnUpdated)}, types)
}

func TestCommandBeforeStart(t *testing.T) {
	m, ids, _ := setupTestMatch(t, fastRules(), [4]bool{})
	_, err := m.HandleCommand(engine.PassBlow{PlayerID: ids[0]})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestRejectedCommandBroadcastsNothing(t *testing.T) {
	m, ids, mb := setupTestMatch(t, fastRules(), [4]bool{})
	pub := &fakePublisher{}
	m.Publisher = pub
	connectAll(t, m, ids)
	require.NoError(t, m.Start())
	mb.clear()

	_, err := m.HandleCommand(engine.PassBlow{PlayerID: ids[1]})
	require.ErrorIs(t, err, engine.ErrNotYourTurn)
	assert.Empty(t, mb.public())
	assert.Zero(t, mb.privateCount())
	assert.Zero(t, pub.count(ActionPassBlow))
}

func TestScriptedRoundThenNextDeal(t *testing.T) {
	m, ids, mb := setupTestMatch(t, fastRules(), [4]bool{})
	pub := &fakePublisher{}
	m.Publisher = pub
	connectAll(t, m, ids)
	require.NoError(t, m.Start())
	rigScenario(m)

	playBlowAndNegri(t, m, ids)
	playTricks(t, m)

	var results *engine.RoundResults
	for _, ev := range mb.public() {
		if r, ok := ev.Payload.(engine.RoundResults); ok {
			results = &r
		}
	}
	require.NotNil(t, results)
	assert.Equal(t, 2.5, results.Points)
	assert.Equal(t, 8, results.TricksWon)

	require.Eventually(t, func() bool {
		st := m.SyncState(uuid.Nil)
		return st.Round == 2 && st.Phase == engine.PhaseBlow
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return pub.count(ActionPlayCard) == 40 && pub.count(actionNextRound) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, pub.count(ActionPassBlow))
	st := m.SyncState(uuid.Nil)
	assert.Equal(t, 2.5, st.Scores[0].Total)
	assert.Zero(t, st.Scores[1].Total)
}

func TestMatchOverRecordsResult(t *testing.T) {
	m, ids, mb := setupTestMatch(t, fastRules(), [4]bool{})
	pub := &fakePublisher{}
	rec := newFakeRecorder()
	m.Publisher = pub
	m.Recorder = rec
	ended := make(chan int, 1)
	m.OnMatchEnd = func(_ uuid.UUID, team int, _ [2]float64) { ended <- team }

	connectAll(t, m, ids)
	require.NoError(t, m.Start())
	select {
	case snap := <-rec.starts:
		assert.Contains(t, string(snap), `"currentRound":1`)
	case <-time.After(time.Second):
		t.Fatal("initial state not recorded")
	}

	rigScenario(m)
	m.Mu.Lock()
	m.game.Scores[0].Total = 8
	m.Mu.Unlock()
	playBlowAndNegri(t, m, ids)
	playTricks(t, m)

	select {
	case team := <-ended:
		assert.Equal(t, 0, team)
	case <-time.After(time.Second):
		t.Fatal("OnMatchEnd not called")
	}
	select {
	case res := <-rec.results:
		assert.Equal(t, m.ID, res.MatchID)
		assert.Equal(t, [2]float64{10.5, 0}, res.Scores)
		assert.Len(t, res.Players, 4)
	case <-time.After(time.Second):
		t.Fatal("result not recorded")
	}
	require.Eventually(t, func() bool { return pub.count(cache.ActionMatchEnd) == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, engine.PhaseMatchOver, m.Phase())
	assert.Zero(t, m.Scheduler.Pending())
	last := mb.public()[len(mb.public())-1]
	assert.Equal(t, GameEventType(engine.KindGameOver), last.Type)

	_, err := m.HandleCommand(engine.PassBlow{PlayerID: ids[1]})
	assert.ErrorIs(t, err, engine.ErrWrongPhase)
}

func TestSyncStateVisibility(t *testing.T) {
	m, ids, _ := setupTestMatch(t, fastRules(), [4]bool{})
	connectAll(t, m, ids)
	require.NoError(t, m.Start())

	st := m.SyncState(ids[1])
	for _, p := range st.Players {
		assert.Equal(t, engine.HandSize, p.HandSize)
		if p.PlayerID == ids[1] {
			assert.Len(t, p.Hand, engine.HandSize)
		} else {
			assert.Nil(t, p.Hand)
		}
	}
	assert.True(t, st.AgariPending)
	assert.Empty(t, st.LegalPlays)

	rigScenario(m)
	playBlowAndNegri(t, m, ids)

	declarer := m.SyncState(ids[0])
	require.NotNil(t, declarer.Negri)
	assert.Equal(t, "Q♠", declarer.Negri.String())
	assert.Len(t, declarer.LegalPlays, engine.HandSize)
	assert.False(t, declarer.AgariPending)

	other := m.SyncState(ids[1])
	assert.Nil(t, other.Negri)
	assert.True(t, other.NegriSelected)
	assert.Nil(t, other.Players[0].Hand)

	_, err := m.HandleCommand(engine.DeclareOpen{PlayerID: ids[0]})
	require.NoError(t, err)
	other = m.SyncState(ids[1])
	assert.Len(t, other.Players[0].Hand, engine.HandSize)
	spectator := m.SyncState(uuid.Nil)
	assert.Len(t, spectator.Players[0].Hand, engine.HandSize)
	assert.Nil(t, spectator.Players[1].Hand)
}

func TestComSeatsPlayOut(t *testing.T) {
	rules := fastRules()
	rules.PointsToWin = 1
	rules.CreditOpponentsOnFailure = true
	m, _, mb := setupTestMatch(t, rules, [4]bool{true, true, true, true})
	ended := make(chan int, 1)
	m.OnMatchEnd = func(_ uuid.UUID, team int, _ [2]float64) { ended <- team }

	require.NoError(t, m.Start())
	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatalf("COM match did not finish, phase %s", m.Phase())
	}
	assert.Equal(t, engine.PhaseMatchOver, m.Phase())
	assert.Zero(t, mb.privateCount(), "COM seats are never connected")
}

func TestDisconnectedPlayerIsTakenOver(t *testing.T) {
	m, ids, mb := setupTestMatch(t, fastRules(), [4]bool{})
	connectAll(t, m, ids)
	require.NoError(t, m.Start())
	require.Equal(t, ids[0], m.SyncState(uuid.Nil).CurrentPlayerID)

	m.HandleDisconnect(ids[0])
	require.Eventually(t, func() bool {
		st := m.SyncState(uuid.Nil)
		return st.Phase == engine.PhaseBlow && st.CurrentPlayerID == ids[1]
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, typesOf(mb.public()), EventPlayerDropped)

	require.NoError(t, m.HandleConnect(ids[0]))
	m.Mu.Lock()
	assert.False(t, m.dropped[ids[0]])
	m.Mu.Unlock()
	evs := mb.private(ids[0])
	assert.Equal(t, EventPrivateSyncState, evs[len(evs)-1].Type)
}

func TestDisconnectWithoutTakeover(t *testing.T) {
	rules := fastRules()
	rules.ComTakeover = false
	m, ids, _ := setupTestMatch(t, rules, [4]bool{})
	connectAll(t, m, ids)
	require.NoError(t, m.Start())

	m.HandleDisconnect(ids[0])
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, ids[0], m.SyncState(uuid.Nil).CurrentPlayerID)
	assert.Zero(t, m.Scheduler.Pending())
}

func TestConnectUnknownPlayer(t *testing.T) {
	m, _, _ := setupTestMatch(t, fastRules(), [4]bool{})
	assert.ErrorIs(t, m.HandleConnect(uuid.New()), engine.ErrUnknownPlayer)
}

func TestEventEnvelopeJSON(t *testing.T) {
	m, ids, mb := setupTestMatch(t, fastRules(), [4]bool{})
	connectAll(t, m, ids)
	require.NoError(t, m.Start())

	ev := mb.private(ids[2])
	data := ConvertEventToBytes(ev[len(ev)-1])
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "hand-dealt", decoded["type"])
	assert.Equal(t, m.ID.String(), decoded["matchId"])
	payload := decoded["payload"].(map[string]interface{})
	assert.Len(t, payload["hand"], engine.HandSize)
	assert.NotContains(t, payload, "To")
}

func TestClosedMatchRejectsCommands(t *testing.T) {
	m, ids, _ := setupTestMatch(t, fastRules(), [4]bool{})
	require.NoError(t, m.Start())
	m.Close()
	_, err := m.HandleCommand(engine.PassBlow{PlayerID: ids[0]})
	assert.ErrorIs(t, err, ErrClosed)
}
