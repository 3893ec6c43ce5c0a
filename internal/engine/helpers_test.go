// internal/engine/helpers_test.go
package engine

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// cards parses a space separated list such as "AS 10H JOKER".
func cards(s string) []Card {
	var out []Card
	for _, f := range strings.Fields(s) {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

func card(s string) Card {
	return cards(s)[0]
}

// newTestGame seats four players and starts round one with a seeded deck.
func newTestGame(t *testing.T, rules Rules) (*Game, []uuid.UUID) {
	t.Helper()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	seats := make([]Seat, len(ids))
	for i, id := range ids {
		seats[i] = Seat{ID: id, Name: "p" + string(rune('1'+i))}
	}
	g, err := NewGame(uuid.New(), seats, rules,
		WithRand(rand.New(rand.NewSource(7))),
		WithClock(func() time.Time { return testEpoch }),
	)
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)
	return g, ids
}

// rig replaces the dealt hands and agari and recomputes the hand flags.
func rig(g *Game, hands [4]string, agari string) {
	for i, p := range g.Players {
		p.Hand = cards(hands[i])
		p.HasBroken = IsBrokenHand(p.Hand)
		p.HasRequiredBroken = HoldsAllJacks(p.Hand)
	}
	a := card(agari)
	g.Agari = &a
}

// scenarioHands is a deal in which seat 0 wins the first eight tricks with
// aces and kings and the other team takes the last two.
var scenarioHands = [4]string{
	"AS KS AC KC AH KH AD KD QD QH",
	"5S 8S 5C 8C 5H 8H 5D 8D JD QC",
	"6S 9S 6C 9C 6H 9H 6D 9D JC JH",
	"7S 10S 7C 10C 7H 10H 7D 10D JS JOKER",
}

const scenarioAgari = "QS"

// scenarioTricks lists the plays of each trick in turn order.
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

// resolveHerz7 runs the Blow in which seat 0 declares Herz 7 and everyone
// else passes.
func resolveHerz7(t *testing.T, g *Game, ids []uuid.UUID) {
	t.Helper()
	_, err := g.Declare(ids[0], TrumpHerz, 7)
	require.NoError(t, err)
	for _, id := range ids[1:] {
		_, err = g.Pass(id)
		require.NoError(t, err)
	}
	require.Equal(t, PhasePlay, g.Phase)
}

// playTrick plays the given cards starting from the current turn holder.
func playTrick(t *testing.T, g *Game, plays string) []Event {
	t.Helper()
	var all []Event
	for _, c := range cards(plays) {
		p := g.CurrentPlayer()
		evs, err := g.PlayCard(p.ID, c)
		require.NoError(t, err, "seat %d playing %s", p.Seat, c)
		all = append(all, evs...)
	}
	return all
}

// cardsOnTable counts every play card the round still tracks.
func cardsOnTable(g *Game) int {
	n := 0
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	for _, f := range g.Play.Fields {
		n += len(f.Cards)
	}
	if g.Play.CurrentField != nil {
		n += len(g.Play.CurrentField.Cards)
	}
	n += len(g.Play.NegriByPlayer)
	if g.Agari != nil {
		n++
	}
	return n
}

func findEvent[T Event](evs []Event) (T, bool) {
	for _, ev := range evs {
		if v, ok := ev.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
