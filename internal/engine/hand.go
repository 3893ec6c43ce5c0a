// internal/engine/hand.go
package engine

// IsBrokenHand reports whether a hand qualifies for a broken declaration:
// no A, K, Q or J at all, or no A, K or J with a single Q.
func IsBrokenHand(hand []Card) bool {
	queens, others := 0, 0
	for _, c := range hand {
		switch c.Rank {
		case RankQueen:
			queens++
		case RankAce, RankKing, RankJack:
			others++
		}
	}
	return others == 0 && queens <= 1
}

// HoldsAllJacks reports whether the hand contains the four jacks, which makes
// a broken declaration mandatory.
func HoldsAllJacks(hand []Card) bool {
	n := 0
	for _, c := range hand {
		if c.Rank == RankJack {
			n++
		}
	}
	return n == 4
}

// LegalPlays lists the cards in hand that may be put into field f.
func LegalPlays(hand []Card, f *Field, trump TrumpType) []Card {
	var out []Card
	for _, c := range hand {
		if CanFollow(hand, c, f, trump) {
			out = append(out, c)
		}
	}
	return out
}

// CanFollow applies the following rule. A player holding a card of the base
// suit must play one. When the base suit is the trump suit, a Joker with no
// other trump card must be played. Otherwise the Joker may be played at any
// time.
func CanFollow(hand []Card, c Card, f *Field, trump TrumpType) bool {
	if f == nil || len(f.Cards) == 0 || f.BaseSuit == SuitNone {
		return true
	}
	if c.IsJoker() {
		return true
	}
	base := f.BaseSuit
	if EffectiveSuit(c, trump) == base {
		return true
	}
	for _, h := range hand {
		if !h.IsJoker() && EffectiveSuit(h, trump) == base {
			return false
		}
	}
	if ts := trump.Suit(); ts != SuitNone && base == ts && containsCard(hand, Joker) {
		return false
	}
	return true
}
