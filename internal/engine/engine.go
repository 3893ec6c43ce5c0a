// internal/engine/engine.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// NewGame seats four players in order. Seats 0 and 2 form team 0, seats 1
// and 3 team 1.
func NewGame(id uuid.UUID, seats []Seat, rules Rules, opts ...Option) (*Game, error) {
	if len(seats) != PlayerCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSeats, len(seats))
	}
	if rules.PointsToWin <= 0 {
		rules.PointsToWin = DefaultPointsToWin
	}
	if rules.ChomboPenalty <= 0 {
		rules.ChomboPenalty = DefaultChomboPenalty
	}
	g := &Game{
		ID:          id,
		Teams:       make(map[uuid.UUID]int, PlayerCount),
		PointsToWin: rules.PointsToWin,
		Rules:       rules,
	}
	for i, s := range seats {
		if s.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: seat %d has no id", ErrInvalidSeats, i)
		}
		if _, dup := g.Teams[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s seated twice", ErrInvalidSeats, s.ID)
		}
		g.Players = append(g.Players, &Player{
			ID:    s.ID,
			Name:  s.Name,
			Seat:  i,
			Team:  i % 2,
			IsCOM: s.IsCOM,
		})
		g.Teams[s.ID] = i % 2
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Start deals the first round.
func (g *Game) Start() ([]Event, error) {
	if g.Phase != PhaseNone {
		return g.fail(fmt.Errorf("%w: match already started", ErrWrongPhase))
	}
	g.Round = 1
	g.BlowStartSeat = 0
	g.deal(false)
	return g.drain(), nil
}

// StartNextRound leaves the Waiting phase. Unreported violations from the
// finished round expire here.
func (g *Game) StartNextRound() ([]Event, error) {
	switch g.Phase {
	case PhaseWaiting:
	case PhaseMatchOver:
		return g.fail(ErrMatchOver)
	default:
		return g.fail(fmt.Errorf("%w: round still in progress", ErrWrongPhase))
	}
	g.expireViolations()
	g.Round++
	g.BlowStartSeat = (g.BlowStartSeat + 1) % PlayerCount
	g.deal(false)
	return g.drain(), nil
}

// deal shuffles the play deck, hands out ten cards per seat and sets the
// agari aside. redeal marks a deal that repeats the current round.
func (g *Game) deal(redeal bool) {
	g.Phase = PhaseDeal
	deck := BuildDeck()
	rng := g.random()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	handSizes := make([]int, 0, PlayerCount)
	for i, p := range g.Players {
		p.Hand = append([]Card(nil), deck[i*HandSize:(i+1)*HandSize]...)
		p.IsPasser = false
		p.HasBroken = IsBrokenHand(p.Hand)
		p.HasRequiredBroken = HoldsAllJacks(p.Hand)
		handSizes = append(handSizes, len(p.Hand))
	}
	agari := deck[PlayerCount*HandSize]
	g.Agari = &agari

	g.Blow = BlowState{Status: BlowStatusAwaiting}
	g.Play = PlayState{NegriByPlayer: make(map[uuid.UUID]Card)}
	g.Phase = PhaseBlow
	g.TurnSeat = g.BlowStartSeat
	g.Deals++

	for _, p := range g.Players {
		g.emit(HandDealt{
			private: private{To: p.ID},
			Round:   g.Round,
			Hand:    append([]Card(nil), p.Hand...),
		})
	}
	g.emit(NewRoundStarted{
		Round:        g.Round,
		Redeal:       redeal,
		StartPlayer:  g.Players[g.BlowStartSeat].ID,
		Scores:       g.TeamTotals(),
		PointsToWin:  g.PointsToWin,
		HandSizes:    handSizes,
		AgariPending: true,
	})
	g.emit(TurnUpdated{Phase: g.Phase, PlayerID: g.Players[g.TurnSeat].ID})
}

func (g *Game) nextSeat(seat int) int {
	return (seat + 1) % PlayerCount
}
