// cmd/simulate/simulate.go
package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/autoplay"
	"github.com/jason-s-yu/meitra/internal/engine"
)

// stepsPerRound bounds the commands of one round: ten tricks of four cards
// plus the blow, negri and base-suit choices fit well inside it.
const stepsPerRound = 200

var errStalled = errors.New("no seat can act")

// matchSummary collects what happened in one simulated match.
type matchSummary struct {
	Seed        int64
	Rounds      int
	Cancelled   int
	Broken      int
	Made        int // rounds the declaring team made its contract
	Failed      int
	Trumps      map[engine.TrumpType]int
	Finished    bool
	WinningTeam int
	Scores      [2]float64
	Results     []engine.RoundResults
}

// runMatch plays a match between four policy-driven seats. A match still
// running after maxRounds is returned unfinished.
func runMatch(seed int64, rules engine.Rules, policy autoplay.Policy, maxRounds int) (matchSummary, error) {
	sum := matchSummary{Seed: seed, Trumps: make(map[engine.TrumpType]int)}

	seats := make([]engine.Seat, engine.PlayerCount)
	for i := range seats {
		seats[i] = engine.Seat{ID: uuid.New(), Name: fmt.Sprintf("COM %d", i+1), IsCOM: true}
	}
	g, err := engine.NewGame(uuid.New(), seats, rules, engine.WithRand(rand.New(rand.NewSource(seed))))
	if err != nil {
		return sum, err
	}
	evs, err := g.Start()
	if err != nil {
		return sum, err
	}
	sum.record(evs)

	for step := 0; g.Phase != engine.PhaseMatchOver; step++ {
		if step >= stepsPerRound*maxRounds {
			return sum, fmt.Errorf("seed %d: %w after %d steps", seed, errStalled, step)
		}
		if g.Phase == engine.PhaseWaiting {
			if g.Round >= maxRounds {
				sum.Scores = g.TeamTotals()
				return sum, nil
			}
			evs, err = g.StartNextRound()
		} else {
			evs, err = step1(g, policy)
		}
		if err != nil {
			return sum, fmt.Errorf("seed %d round %d: %w", seed, g.Round, err)
		}
		sum.record(evs)
	}
	sum.Finished = true
	if g.WinningTeam != nil {
		sum.WinningTeam = *g.WinningTeam
	}
	sum.Scores = g.TeamTotals()
	return sum, nil
}

// step1 applies the first command any seat wants to play.
func step1(g *engine.Game, policy autoplay.Policy) ([]engine.Event, error) {
	for _, p := range g.Players {
		if cmd := policy.Decide(g, p.ID); cmd != nil {
			return g.Apply(cmd)
		}
	}
	return nil, errStalled
}

func (s *matchSummary) record(evs []engine.Event) {
	for _, ev := range evs {
		switch e := ev.(type) {
		case engine.RoundCancelled:
			s.Cancelled++
		case engine.Broken:
			s.Broken++
		case engine.BlowResolved:
			s.Trumps[e.Trump]++
		case engine.RoundResults:
			s.Rounds++
			s.Results = append(s.Results, e)
			if e.TricksWon >= e.DeclaredPairs {
				s.Made++
			} else {
				s.Failed++
			}
		}
	}
}
