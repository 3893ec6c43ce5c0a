// internal/engine/strength.go
package engine

import (
	"fmt"
	"strings"
)

const (
	JokerStrength = 150
	TrumpBonus    = 100
	BaseBonus     = 50

	primaryJackStrength   = 19
	secondaryJackStrength = 18
)

// TrumpType is the trump chosen by the winning Blow declaration.
type TrumpType int

const (
	TrumpNone TrumpType = iota
	TrumpZuppe
	TrumpClub
	TrumpDaiya
	TrumpHerz
	TrumpTra
)

var trumpNames = map[TrumpType]string{
	TrumpNone:  "",
	TrumpTra:   "tra",
	TrumpHerz:  "herz",
	TrumpDaiya: "daiya",
	TrumpClub:  "club",
	TrumpZuppe: "zuppe",
}

func (t TrumpType) String() string { return trumpNames[t] }

func (t TrumpType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TrumpType) UnmarshalText(b []byte) error {
	v, err := ParseTrump(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTrump parses a trump name. The empty string is TrumpNone.
func ParseTrump(s string) (TrumpType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range trumpNames {
		if name == s {
			return t, nil
		}
	}
	return TrumpNone, fmt.Errorf("%w: unknown trump %q", ErrInvalidDeclaration, s)
}

// Strength orders trumps for declarations of equal pairs:
// Tra 5, Herz 4, Daiya 3, Club 2, Zuppe 1.
func (t TrumpType) Strength() int { return int(t) }

// Suit is the suit elevated by the trump, SuitNone for Tra.
func (t TrumpType) Suit() Suit {
	switch t {
	case TrumpHerz:
		return Hearts
	case TrumpDaiya:
		return Diamonds
	case TrumpClub:
		return Clubs
	case TrumpZuppe:
		return Spades
	}
	return SuitNone
}

// partnerSuit pairs Hearts with Diamonds and Clubs with Spades.
func partnerSuit(s Suit) Suit {
	switch s {
	case Hearts:
		return Diamonds
	case Diamonds:
		return Hearts
	case Clubs:
		return Spades
	case Spades:
		return Clubs
	}
	return SuitNone
}

// PrimaryJack is the jack of the trump suit. ok is false under Tra.
func PrimaryJack(t TrumpType) (Card, bool) {
	s := t.Suit()
	if s == SuitNone {
		return Card{}, false
	}
	return Card{Rank: RankJack, Suit: s}, true
}

// SecondaryJack is the jack of the trump suit's partner.
func SecondaryJack(t TrumpType) (Card, bool) {
	s := t.Suit()
	if s == SuitNone {
		return Card{}, false
	}
	return Card{Rank: RankJack, Suit: partnerSuit(s)}, true
}

// EffectiveSuit is the suit a card counts as for following and base-suit
// purposes. The secondary jack belongs to the trump suit.
func EffectiveSuit(c Card, trump TrumpType) Suit {
	if c.IsJoker() {
		return SuitNone
	}
	if sj, ok := SecondaryJack(trump); ok && c == sj {
		return trump.Suit()
	}
	return c.Suit
}

// EffectiveStrength scores a card within a trick. It is a pure function of its
// inputs.
func EffectiveStrength(c Card, trump TrumpType, base Suit) int {
	if c.IsJoker() {
		return JokerStrength
	}
	strength := RawStrength(c.Rank)
	if pj, ok := PrimaryJack(trump); ok && c == pj {
		strength = primaryJackStrength
	} else if sj, ok := SecondaryJack(trump); ok && c == sj {
		strength = secondaryJackStrength
	}
	suit := EffectiveSuit(c, trump)
	if ts := trump.Suit(); ts != SuitNone && suit == ts {
		strength += TrumpBonus
	}
	if base != SuitNone && suit == base {
		strength += BaseBonus
	}
	return strength
}

// TrickWinner returns the index of the winning card. The Joker always wins;
// otherwise the strongest card wins and ties go to the earlier card.
func TrickWinner(cards []Card, trump TrumpType, base Suit) int {
	if len(cards) == 0 {
		panic("engine: trick winner of empty field")
	}
	best, bestStrength := 0, -1
	for i, c := range cards {
		if c.IsJoker() {
			return i
		}
		if s := EffectiveStrength(c, trump, base); s > bestStrength {
			best, bestStrength = i, s
		}
	}
	return best
}
