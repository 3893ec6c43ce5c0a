// internal/engine/blow_test.go
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclarationOrdering(t *testing.T) {
	trumps := []TrumpType{TrumpZuppe, TrumpClub, TrumpDaiya, TrumpHerz, TrumpTra}
	var all []BlowDeclaration
	for pairs := MinPairs; pairs <= MaxPairs; pairs++ {
		for _, tr := range trumps {
			all = append(all, BlowDeclaration{Trump: tr, Pairs: pairs})
		}
	}
	// all is in ascending order, so a later entry beats every earlier one.
	for i, a := range all {
		for j, b := range all {
			b := b
			switch {
			case i > j:
				assert.True(t, a.Beats(&b), "%v should beat %v", a, b)
			case i < j:
				assert.False(t, a.Beats(&b), "%v should not beat %v", a, b)
			default:
				assert.False(t, a.Beats(&b), "a declaration never beats itself")
			}
		}
	}
	assert.True(t, all[0].Beats(nil))
}

func TestBlowTurnAndValidation(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	rig(g, scenarioHands, scenarioAgari)

	cases := []struct {
		name string
		run  func(t *testing.T)
	}{
		{"out of turn declare", func(t *testing.T) {
			_, err := g.Declare(ids[1], TrumpHerz, 7)
			assert.ErrorIs(t, err, ErrNotYourTurn)
		}},
		{"out of turn pass", func(t *testing.T) {
			_, err := g.Pass(ids[2])
			assert.ErrorIs(t, err, ErrNotYourTurn)
		}},
		{"too few pairs", func(t *testing.T) {
			_, err := g.Declare(ids[0], TrumpTra, 5)
			assert.ErrorIs(t, err, ErrInvalidDeclaration)
		}},
		{"no trump", func(t *testing.T) {
			_, err := g.Declare(ids[0], TrumpNone, 7)
			assert.ErrorIs(t, err, ErrInvalidDeclaration)
		}},
		{"too many pairs", func(t *testing.T) {
			_, err := g.Declare(ids[0], TrumpTra, 11)
			assert.ErrorIs(t, err, ErrInvalidDeclaration)
		}},
		{"play in blow", func(t *testing.T) {
			_, err := g.PlayCard(ids[0], card("AS"))
			assert.ErrorIs(t, err, ErrWrongPhase)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
	assert.Empty(t, g.Blow.Declarations, "rejected commands leave no trace")
	assert.Equal(t, 0, g.TurnSeat)

	evs, err := g.Declare(ids[0], TrumpClub, 7)
	require.NoError(t, err)
	upd, ok := findEvent[BlowUpdated](evs)
	require.True(t, ok)
	assert.Equal(t, ids[1], upd.NextPlayer)
	require.NotNil(t, upd.CurrentHighest)
	assert.Equal(t, TrumpClub, upd.CurrentHighest.Trump)
	assert.Equal(t, testEpoch, upd.CurrentHighest.Timestamp)

	_, err = g.Declare(ids[1], TrumpZuppe, 7)
	assert.ErrorIs(t, err, ErrInvalidDeclaration, "weaker trump at same pairs")
	_, err = g.Declare(ids[1], TrumpClub, 7)
	assert.ErrorIs(t, err, ErrInvalidDeclaration, "equal declaration")

	_, err = g.Declare(ids[1], TrumpDaiya, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, g.TurnSeat)
	assert.Len(t, g.Blow.Declarations, 2)
	assert.Equal(t, ids[1], g.Blow.CurrentHighest.PlayerID)
	assert.Equal(t, TrumpDaiya, g.Blow.CurrentTrump)
}

func TestBlowTurnSkipsPassers(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	rig(g, scenarioHands, scenarioAgari)

	_, err := g.Declare(ids[0], TrumpZuppe, 6)
	require.NoError(t, err)
	_, err = g.Pass(ids[1])
	require.NoError(t, err)
	_, err = g.Declare(ids[2], TrumpClub, 6)
	require.NoError(t, err)
	_, err = g.Declare(ids[3], TrumpDaiya, 6)
	require.NoError(t, err)

	assert.Equal(t, 0, g.TurnSeat)
	_, err = g.Pass(ids[0])
	require.NoError(t, err)
	assert.Equal(t, 2, g.TurnSeat, "seat 1 has passed and is skipped")

	_, err = g.Pass(ids[1])
	assert.ErrorIs(t, err, ErrAlreadyPassed)

	evs, err := g.Pass(ids[2])
	require.NoError(t, err)
	res, ok := findEvent[BlowResolved](evs)
	require.True(t, ok)
	assert.Equal(t, ids[3], res.DeclarerID)
	assert.Equal(t, 1, res.DeclaringTeam)
	assert.Equal(t, TrumpDaiya, res.Trump)
	assert.Equal(t, PhasePlay, g.Phase)
	assert.Equal(t, 3, g.TurnSeat)
	assert.Equal(t, ids[2], g.Blow.LastPasser)
}

func TestBlowResolvesAndHandsOverAgari(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	rig(g, scenarioHands, scenarioAgari)

	_, err := g.Declare(ids[0], TrumpHerz, 7)
	require.NoError(t, err)
	_, err = g.Pass(ids[1])
	require.NoError(t, err)
	_, err = g.Pass(ids[2])
	require.NoError(t, err)
	evs, err := g.Pass(ids[3])
	require.NoError(t, err)

	assert.Equal(t, BlowStatusResolved, g.Blow.Status)
	assert.Equal(t, TrumpHerz, g.Blow.CurrentTrump)
	assert.Equal(t, ids[0], g.Play.DeclarerID)
	assert.Nil(t, g.Agari)
	assert.Len(t, g.Players[0].Hand, HandSize+1)
	assert.Contains(t, g.Players[0].Hand, card("QS"))

	agari, ok := findEvent[AgariTaken](evs)
	require.True(t, ok)
	assert.Equal(t, ids[0], agari.Recipient())
	assert.Equal(t, card("QS"), agari.Card)
}

func TestRoundCancelledAfterFourPasses(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	rig(g, scenarioHands, scenarioAgari)
	deals := g.Deals

	var evs []Event
	for _, id := range ids {
		var err error
		evs, err = g.Pass(id)
		require.NoError(t, err)
	}

	cancelled, ok := findEvent[RoundCancelled](evs)
	require.True(t, ok)
	assert.NotNil(t, cancelled.Declarations)
	assert.Empty(t, cancelled.Declarations)
	assert.Equal(t, 1, cancelled.NextBlowStartSeat)
	assert.Equal(t, ids[1], cancelled.NextStartPlayer)

	started, ok := findEvent[NewRoundStarted](evs)
	require.True(t, ok)
	assert.True(t, started.Redeal)

	assert.Equal(t, 1, g.Round, "a cancelled deal repeats the round")
	assert.Equal(t, deals+1, g.Deals)
	assert.Equal(t, PhaseBlow, g.Phase)
	assert.Equal(t, 1, g.BlowStartSeat)
	assert.Equal(t, 1, g.TurnSeat)
	assert.Empty(t, g.Blow.Declarations)
	for _, p := range g.Players {
		assert.False(t, p.IsPasser)
		assert.Len(t, p.Hand, HandSize)
	}
	assert.Equal(t, PlayDeckSize, cardsOnTable(g))
}

func TestRequiredBrokenLenient(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	hands := scenarioHands
	hands[0] = "JS JC JH JD AS KS AC KC AH KH"
	hands[1] = "5S 8S 5C 8C 5H 8H 5D 8D QD QC"
	rig(g, hands, scenarioAgari)
	require.True(t, g.Players[0].HasRequiredBroken)

	_, err := g.Pass(ids[0])
	require.NoError(t, err)
	open := g.OpenViolations()
	require.Len(t, open, 1)
	assert.Equal(t, ViolationFourJackNotDeclared, open[0].Type)
	assert.Equal(t, ids[0], open[0].PlayerID)
}

func TestRequiredBrokenStrict(t *testing.T) {
	rules := DefaultRules()
	rules.StrictBroken = true
	g, ids := newTestGame(t, rules)
	hands := scenarioHands
	hands[0] = "JS JC JH JD AS KS AC KC AH KH"
	hands[1] = "5S 8S 5C 8C 5H 8H 5D 8D QD QC"
	rig(g, hands, scenarioAgari)

	_, err := g.Declare(ids[0], TrumpTra, 6)
	assert.ErrorIs(t, err, ErrMustDeclareBroken)
	_, err = g.Pass(ids[0])
	assert.ErrorIs(t, err, ErrMustDeclareBroken)
	assert.Empty(t, g.Violations)
	assert.Equal(t, 0, g.TurnSeat)

	evs, err := g.DeclareBroken(ids[0])
	require.NoError(t, err)
	broken, ok := findEvent[Broken](evs)
	require.True(t, ok)
	assert.False(t, broken.Forced)
	assert.Len(t, broken.Hand, HandSize)
	assert.Empty(t, g.Violations, "a four jack hand may always be declared broken")
	assert.Equal(t, 0, g.BlowStartSeat, "broken redeal keeps the starting seat")
	assert.Equal(t, 1, g.Round)
}

func TestDeclareBrokenValidity(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	hands := scenarioHands
	hands[0] = "5S 6S 7S 8S 9S 10S 5C 6C 7C QH"
	hands[1] = "AS KS AC KC AH KH 5D 8D JD QC"
	rig(g, hands, scenarioAgari)
	require.True(t, g.Players[0].HasBroken)

	_, err := g.DeclareBroken(ids[0])
	require.NoError(t, err)
	assert.Empty(t, g.Violations)

	// the redeal is random; rig again so seat 0 has a strong hand
	rig(g, scenarioHands, scenarioAgari)
	_, err = g.DeclareBroken(ids[0])
	require.NoError(t, err)
	open := g.OpenViolations()
	require.Len(t, open, 1)
	assert.Equal(t, ViolationInvalidBroken, open[0].Type)
}

func TestForcedBrokenWhenAgariCompletesJacks(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	hands := scenarioHands
	hands[0] = "JC JH JD AS KS AC KC AH KH AD"
	hands[3] = "7S 10S 7C 10C 7H 10H 7D 10D QS JOKER"
	rig(g, hands, "JS")
	require.False(t, g.Players[0].HasRequiredBroken)

	_, err := g.Declare(ids[0], TrumpTra, 6)
	require.NoError(t, err)
	_, err = g.Pass(ids[1])
	require.NoError(t, err)
	_, err = g.Pass(ids[2])
	require.NoError(t, err)
	evs, err := g.Pass(ids[3])
	require.NoError(t, err)

	broken, ok := findEvent[Broken](evs)
	require.True(t, ok)
	assert.True(t, broken.Forced)
	assert.Equal(t, ids[0], broken.PlayerID)
	assert.Equal(t, PhaseBlow, g.Phase)
	assert.Equal(t, 1, g.Round)
}
