// internal/engine/blow.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Declare bids trump and pairs for the player holding the Blow turn.
func (g *Game) Declare(playerID uuid.UUID, trump TrumpType, pairs int) ([]Event, error) {
	p, err := g.blowActor(playerID)
	if err != nil {
		return g.fail(err)
	}
	if trump == TrumpNone || trump > TrumpTra {
		return g.fail(fmt.Errorf("%w: no trump given", ErrInvalidDeclaration))
	}
	if pairs < MinPairs || pairs > MaxPairs {
		return g.fail(fmt.Errorf("%w: pairs must be between %d and %d", ErrInvalidDeclaration, MinPairs, MaxPairs))
	}
	decl := BlowDeclaration{
		PlayerID:  playerID,
		Trump:     trump,
		Pairs:     pairs,
		Timestamp: g.clock(),
	}
	if !decl.Beats(g.Blow.CurrentHighest) {
		return g.fail(fmt.Errorf("%w: %s %d does not beat current declaration", ErrInvalidDeclaration, trump, pairs))
	}
	if err := g.checkRequiredBroken(p); err != nil {
		return g.fail(err)
	}

	g.Blow.Declarations = append(g.Blow.Declarations, decl)
	highest := decl
	g.Blow.CurrentHighest = &highest
	g.Blow.CurrentTrump = trump
	g.afterBlowAction()
	return g.drain(), nil
}

// Pass opts the player out of the current Blow.
func (g *Game) Pass(playerID uuid.UUID) ([]Event, error) {
	p, err := g.blowActor(playerID)
	if err != nil {
		return g.fail(err)
	}
	if err := g.checkRequiredBroken(p); err != nil {
		return g.fail(err)
	}
	p.IsPasser = true
	g.Blow.LastPasser = playerID
	g.afterBlowAction()
	return g.drain(), nil
}

// DeclareBroken reveals the player's hand and voids the deal. The same
// round is redealt from the same starting seat.
func (g *Game) DeclareBroken(playerID uuid.UUID) ([]Event, error) {
	p, err := g.blowActor(playerID)
	if err != nil {
		return g.fail(err)
	}
	if !p.HasBroken && !p.HasRequiredBroken {
		g.recordViolation(ViolationInvalidBroken, playerID)
	}
	g.emit(Broken{PlayerID: playerID, Hand: append([]Card(nil), p.Hand...)})
	g.deal(true)
	return g.drain(), nil
}

// blowActor validates that playerID may act in the Blow right now.
func (g *Game) blowActor(playerID uuid.UUID) (*Player, error) {
	if g.Phase != PhaseBlow {
		return nil, fmt.Errorf("%w: %s", ErrWrongPhase, g.Phase)
	}
	p := g.PlayerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if p.IsPasser {
		return nil, ErrAlreadyPassed
	}
	if g.TurnSeat != p.Seat {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// checkRequiredBroken gates ordinary Blow actions for a four-jack hand.
func (g *Game) checkRequiredBroken(p *Player) error {
	if !p.HasRequiredBroken {
		return nil
	}
	if g.Rules.StrictBroken {
		return ErrMustDeclareBroken
	}
	g.recordViolation(ViolationFourJackNotDeclared, p.ID)
	return nil
}

func (g *Game) passers() []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range g.Players {
		if p.IsPasser {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// nextBlowSeat finds the next seat after from that has not passed.
func (g *Game) nextBlowSeat(from int) int {
	seat := from
	for i := 0; i < PlayerCount; i++ {
		seat = g.nextSeat(seat)
		if !g.Players[seat].IsPasser {
			return seat
		}
	}
	return from
}

func (g *Game) afterBlowAction() {
	passers := g.passers()
	declared := len(g.Blow.Declarations) > 0
	switch {
	case len(passers) == PlayerCount && !declared:
		g.emitBlowUpdated(passers, uuid.Nil)
		g.cancelRound()
	case len(passers) >= PlayerCount-1 && declared:
		g.emitBlowUpdated(passers, uuid.Nil)
		g.resolveBlow()
	default:
		g.TurnSeat = g.nextBlowSeat(g.TurnSeat)
		next := g.Players[g.TurnSeat].ID
		g.emitBlowUpdated(passers, next)
		g.emit(TurnUpdated{Phase: PhaseBlow, PlayerID: next})
	}
}

func (g *Game) emitBlowUpdated(passers []uuid.UUID, next uuid.UUID) {
	var highest *BlowDeclaration
	if g.Blow.CurrentHighest != nil {
		h := *g.Blow.CurrentHighest
		highest = &h
	}
	g.emit(BlowUpdated{
		Declarations:   append([]BlowDeclaration{}, g.Blow.Declarations...),
		CurrentHighest: highest,
		LastPasser:     g.Blow.LastPasser,
		Passers:        passers,
		NextPlayer:     next,
	})
}

// cancelRound handles four passes without a declaration.
func (g *Game) cancelRound() {
	g.Blow.Status = BlowStatusCancelled
	g.Blow.IsRoundCancelled = true
	g.BlowStartSeat = g.nextSeat(g.BlowStartSeat)
	g.emit(RoundCancelled{
		Round:             g.Round,
		Declarations:      []BlowDeclaration{},
		NextStartPlayer:   g.Players[g.BlowStartSeat].ID,
		NextBlowStartSeat: g.BlowStartSeat,
	})
	g.deal(true)
}

// resolveBlow locks the trump, hands the agari to the declarer and moves to
// Play, where the declarer owes a negri before leading.
func (g *Game) resolveBlow() {
	h := *g.Blow.CurrentHighest
	declarer := g.PlayerByID(h.PlayerID)
	if declarer == nil || declarer.IsPasser {
		panic(fmt.Sprintf("engine: blow resolved to invalid declarer %s", h.PlayerID))
	}
	g.Blow.Status = BlowStatusResolved
	g.Blow.CurrentTrump = h.Trump

	g.emit(BlowResolved{
		DeclarerID:    declarer.ID,
		DeclaringTeam: declarer.Team,
		Trump:         h.Trump,
		Pairs:         h.Pairs,
	})

	if g.Agari != nil {
		agari := *g.Agari
		g.Agari = nil
		declarer.Hand = append(declarer.Hand, agari)
		g.emit(AgariTaken{private: private{To: declarer.ID}, Card: agari})
	}

	if HoldsAllJacks(declarer.Hand) {
		declarer.HasRequiredBroken = true
		g.emit(Broken{PlayerID: declarer.ID, Hand: append([]Card(nil), declarer.Hand...), Forced: true})
		g.deal(true)
		return
	}

	g.Phase = PhasePlay
	g.Play.DeclarerID = declarer.ID
	g.TurnSeat = declarer.Seat
	g.emit(TurnUpdated{Phase: PhasePlay, PlayerID: declarer.ID})
}
