// internal/engine/trick.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// SelectNegri sets one card of the declarer's hand aside before the first
// lead. Only its owner ever sees it.
func (g *Game) SelectNegri(playerID uuid.UUID, card Card) ([]Event, error) {
	p, err := g.playActor(playerID)
	if err != nil {
		return g.fail(err)
	}
	if playerID != g.Play.DeclarerID {
		return g.fail(ErrNotYourTurn)
	}
	if g.Play.NegriCard != nil {
		return g.fail(ErrNegriAlreadyChosen)
	}
	if !containsCard(p.Hand, card) {
		return g.fail(fmt.Errorf("%w: %s", ErrCardNotInHand, card))
	}

	p.Hand = removeCard(p.Hand, card)
	negri := card
	g.Play.NegriCard = &negri
	g.Play.NegriByPlayer[playerID] = card
	g.Play.CurrentField = &Field{DealerID: playerID}

	decl := g.Blow.CurrentHighest
	g.emit(NegriSelected{private: private{To: playerID}, Card: card})
	g.emit(PlaySetupComplete{
		DeclarerID: playerID,
		Trump:      decl.Trump,
		Pairs:      decl.Pairs,
		LeadPlayer: playerID,
	})
	g.emit(TurnUpdated{Phase: PhasePlay, PlayerID: playerID})
	return g.drain(), nil
}

// PlayCard puts a card from the player's hand into the current field.
//
// Playing before the negri is set aside fails; when the declarer does it a
// negri-forgotten violation is recorded even though the card is refused.
func (g *Game) PlayCard(playerID uuid.UUID, card Card) ([]Event, error) {
	p, err := g.playActor(playerID)
	if err != nil {
		return g.fail(err)
	}
	if g.Play.NegriCard == nil {
		if playerID == g.Play.DeclarerID {
			g.recordViolation(ViolationNegriForgotten, playerID)
		}
		return g.fail(ErrNegriNotSelected)
	}
	f := g.Play.CurrentField
	if f.AwaitingBaseSuit() {
		return g.fail(ErrBaseSuitRequired)
	}
	if g.TurnSeat != p.Seat {
		return g.fail(ErrNotYourTurn)
	}
	if !containsCard(p.Hand, card) {
		return g.fail(fmt.Errorf("%w: %s", ErrCardNotInHand, card))
	}
	trump := g.Blow.CurrentTrump
	if !CanFollow(p.Hand, card, f, trump) {
		if !g.Rules.LenientFollow {
			return g.fail(fmt.Errorf("%w: %s", ErrInvalidFollow, f.BaseSuit))
		}
		g.recordViolation(ViolationWrongSuitPlay, playerID)
	}

	p.Hand = removeCard(p.Hand, card)
	f.Cards = append(f.Cards, PlayedCard{PlayerID: playerID, Card: card})
	if len(f.Cards) > PlayerCount {
		panic(fmt.Sprintf("engine: field holds %d cards", len(f.Cards)))
	}
	if len(f.Cards) == 1 {
		base := card
		f.BaseCard = &base
		if !card.IsJoker() {
			f.BaseSuit = EffectiveSuit(card, trump)
		}
	}
	if len(p.Hand) == 1 && p.Hand[0].IsJoker() {
		g.recordViolation(ViolationLastCardIsJoker, playerID)
	}

	if f.AwaitingBaseSuit() {
		g.emitFieldUpdated(playerID, playerID)
		return g.drain(), nil
	}
	if len(f.Cards) == PlayerCount {
		g.completeField()
		return g.drain(), nil
	}
	g.TurnSeat = g.nextSeat(g.TurnSeat)
	next := g.Players[g.TurnSeat].ID
	g.emitFieldUpdated(playerID, next)
	g.emit(TurnUpdated{Phase: PhasePlay, PlayerID: next})
	return g.drain(), nil
}

// SelectBaseSuit names the base suit of a Joker-led field. Only the leader
// may choose.
func (g *Game) SelectBaseSuit(playerID uuid.UUID, suit Suit) ([]Event, error) {
	if _, err := g.playActor(playerID); err != nil {
		return g.fail(err)
	}
	f := g.Play.CurrentField
	if !f.AwaitingBaseSuit() {
		return g.fail(ErrBaseSuitNotPending)
	}
	if f.DealerID != playerID {
		return g.fail(ErrNotYourTurn)
	}
	if suit < Spades || suit > Clubs {
		return g.fail(fmt.Errorf("%w: %d", ErrInvalidSuit, suit))
	}

	f.BaseSuit = suit
	g.TurnSeat = g.nextSeat(g.TurnSeat)
	next := g.Players[g.TurnSeat].ID
	g.emitFieldUpdated(playerID, next)
	g.emit(TurnUpdated{Phase: PhasePlay, PlayerID: next})
	return g.drain(), nil
}

// DeclareOpen lets the declarer, when about to lead, expose their hand for
// the rest of the round.
func (g *Game) DeclareOpen(playerID uuid.UUID) ([]Event, error) {
	p, err := g.playActor(playerID)
	if err != nil {
		return g.fail(err)
	}
	if playerID != g.Play.DeclarerID || g.Play.OpenDeclared {
		return g.fail(ErrInvalidOpen)
	}
	if g.Play.NegriCard == nil {
		return g.fail(ErrNegriNotSelected)
	}
	if g.TurnSeat != p.Seat || len(g.Play.CurrentField.Cards) > 0 {
		return g.fail(ErrNotYourTurn)
	}

	g.Play.OpenDeclared = true
	g.Play.OpenDeclarerID = playerID
	g.emit(OpenDeclared{PlayerID: playerID, Hand: append([]Card(nil), p.Hand...)})
	return g.drain(), nil
}

// LegalPlays lists the cards playerID may play now. It is empty when it is
// not the player's turn to play a card.
func (g *Game) LegalPlays(playerID uuid.UUID) []Card {
	p := g.PlayerByID(playerID)
	if p == nil || g.Phase != PhasePlay || g.Play.NegriCard == nil || g.TurnSeat != p.Seat {
		return nil
	}
	f := g.Play.CurrentField
	if f.AwaitingBaseSuit() {
		return nil
	}
	return LegalPlays(p.Hand, f, g.Blow.CurrentTrump)
}

func (g *Game) playActor(playerID uuid.UUID) (*Player, error) {
	if g.Phase != PhasePlay {
		return nil, fmt.Errorf("%w: %s", ErrWrongPhase, g.Phase)
	}
	p := g.PlayerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

func (g *Game) emitFieldUpdated(playedBy, next uuid.UUID) {
	f := g.Play.CurrentField
	snapshot := *f
	snapshot.Cards = append([]PlayedCard(nil), f.Cards...)
	g.emit(FieldUpdated{
		Field:            snapshot,
		PlayedBy:         playedBy,
		AwaitingBaseSuit: f.AwaitingBaseSuit(),
		NextPlayer:       next,
	})
}

// completeField resolves a full field. The winner leads the next one; after
// the last trick of the round scoring runs.
func (g *Game) completeField() {
	f := g.Play.CurrentField
	trump := g.Blow.CurrentTrump
	w := TrickWinner(f.cards(), trump, f.BaseSuit)
	winner := g.PlayerByID(f.Cards[w].PlayerID)

	done := CompletedField{
		Cards:      f.Cards,
		BaseSuit:   f.BaseSuit,
		DealerID:   f.DealerID,
		WinnerID:   winner.ID,
		WinnerTeam: winner.Team,
	}
	g.Play.Fields = append(g.Play.Fields, done)
	g.Play.LastWinnerID = winner.ID

	if g.Play.OpenDeclared && !g.Play.OpenFailed && winner.Team != g.Teams[g.Play.OpenDeclarerID] {
		g.Play.OpenFailed = true
		g.recordViolation(ViolationInvalidOpen, g.Play.OpenDeclarerID)
	}

	g.TurnSeat = winner.Seat
	last := len(g.Play.Fields) == TricksPerRound
	next := winner.ID
	if last {
		next = uuid.Nil
	}
	g.emit(FieldComplete{
		Field:        done,
		TrickNumber:  len(g.Play.Fields),
		TricksByTeam: g.TricksByTeam(),
		NextPlayer:   next,
	})

	if last {
		g.Play.CurrentField = nil
		g.scoreRound()
		return
	}
	g.Play.CurrentField = &Field{DealerID: winner.ID}
	g.emit(TurnUpdated{Phase: PhasePlay, PlayerID: winner.ID})
}
