// internal/autoplay/policy.go
package autoplay

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/engine"
)

// Policy picks the command a COM seat plays. It never reports violations.
type Policy struct {
	// Bid lets a COM open the Blow with its longest suit when nobody has
	// declared yet. Without it COM seats always pass.
	Bid bool
}

// Decide returns the command for playerID, or nil when the seat has nothing
// to do right now.
func (p Policy) Decide(g *engine.Game, playerID uuid.UUID) engine.Command {
	pl := g.PlayerByID(playerID)
	if pl == nil {
		return nil
	}
	switch g.Phase {
	case engine.PhaseBlow:
		if cur := g.CurrentPlayer(); cur == nil || cur.ID != playerID {
			return nil
		}
		return p.blow(g, pl)
	case engine.PhasePlay:
		return p.play(g, pl)
	}
	return nil
}

func (p Policy) blow(g *engine.Game, pl *engine.Player) engine.Command {
	if pl.HasRequiredBroken {
		return engine.DeclareBroken{PlayerID: pl.ID}
	}
	if p.Bid && g.Blow.CurrentHighest == nil {
		return engine.DeclareBlow{PlayerID: pl.ID, Trump: ChooseTrump(pl.Hand), Pairs: engine.MinPairs}
	}
	return engine.PassBlow{PlayerID: pl.ID}
}

func (p Policy) play(g *engine.Game, pl *engine.Player) engine.Command {
	trump := g.Blow.CurrentTrump
	if g.Play.NegriCard == nil {
		if pl.ID != g.Play.DeclarerID {
			return nil
		}
		return engine.SelectNegri{PlayerID: pl.ID, Card: weakest(pl.Hand, trump)}
	}
	f := g.Play.CurrentField
	if f.AwaitingBaseSuit() {
		if f.DealerID != pl.ID {
			return nil
		}
		return engine.SelectBaseSuit{PlayerID: pl.ID, Suit: longestSuit(pl.Hand, trump)}
	}
	legal := g.LegalPlays(pl.ID)
	if len(legal) == 0 {
		return nil
	}
	return engine.PlayCard{PlayerID: pl.ID, Card: strongest(legal, trump, f.BaseSuit)}
}

// ChooseTrump names the suit trump under which the hand holds the most trump
// cards. Hands without four such cards bid Tra.
func ChooseTrump(hand []engine.Card) engine.TrumpType {
	best, bestCount := engine.TrumpTra, 0
	for _, t := range []engine.TrumpType{engine.TrumpHerz, engine.TrumpDaiya, engine.TrumpClub, engine.TrumpZuppe} {
		n := 0
		for _, c := range hand {
			if c.IsJoker() || engine.EffectiveSuit(c, t) == t.Suit() {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = t, n
		}
	}
	if bestCount < 4 {
		return engine.TrumpTra
	}
	return best
}

// strongest is the card with the highest strength in the current field.
// Ties keep the first card.
func strongest(cards []engine.Card, trump engine.TrumpType, base engine.Suit) engine.Card {
	best := cards[0]
	bestStrength := engine.EffectiveStrength(best, trump, base)
	for _, c := range cards[1:] {
		if s := engine.EffectiveStrength(c, trump, base); s > bestStrength {
			best, bestStrength = c, s
		}
	}
	return best
}

// weakest never gives up the Joker unless it is the only card.
func weakest(cards []engine.Card, trump engine.TrumpType) engine.Card {
	best, bestStrength := cards[0], engine.EffectiveStrength(cards[0], trump, engine.SuitNone)
	for _, c := range cards[1:] {
		if s := engine.EffectiveStrength(c, trump, engine.SuitNone); s < bestStrength {
			best, bestStrength = c, s
		}
	}
	return best
}

func longestSuit(hand []engine.Card, trump engine.TrumpType) engine.Suit {
	counts := make(map[engine.Suit]int)
	for _, c := range hand {
		if s := engine.EffectiveSuit(c, trump); s != engine.SuitNone {
			counts[s]++
		}
	}
	best, bestCount := engine.Spades, -1
	for _, s := range engine.Suits {
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}
