// internal/engine/card.go
package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits. SuitNone is used for the Joker and for
// an undetermined base suit.
type Suit int

const (
	SuitNone Suit = iota
	Spades
	Hearts
	Diamonds
	Clubs
)

// Suits lists the four real suits in deck order.
var Suits = []Suit{Spades, Clubs, Hearts, Diamonds}

var suitSymbols = map[Suit]string{
	Spades:   "♠",
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
}

func (s Suit) String() string {
	if sym, ok := suitSymbols[s]; ok {
		return sym
	}
	return ""
}

// MarshalText encodes the suit as its symbol; SuitNone encodes as the empty string.
func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	v, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSuit accepts a suit symbol or its english name.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SuitNone, nil
	case "♠", "s", "spade", "spades":
		return Spades, nil
	case "♥", "h", "heart", "hearts":
		return Hearts, nil
	case "♦", "d", "diamond", "diamonds":
		return Diamonds, nil
	case "♣", "c", "club", "clubs":
		return Clubs, nil
	}
	return SuitNone, fmt.Errorf("%w: unknown suit %q", ErrInvalidSuit, s)
}

// Rank is the face value of a card. Numeric ranks use their face value,
// court cards continue upward and the Joker sits above the Ace.
type Rank int

const (
	RankTwo   Rank = 2
	RankThree Rank = 3
	RankFour  Rank = 4
	RankFive  Rank = 5
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
	RankAce   Rank = 14
	RankJoker Rank = 15
)

var rankNames = map[Rank]string{
	RankJack:  "J",
	RankQueen: "Q",
	RankKing:  "K",
	RankAce:   "A",
	RankJoker: "JOKER",
}

func (r Rank) String() string {
	if n, ok := rankNames[r]; ok {
		return n
	}
	return strconv.Itoa(int(r))
}

// Card is an immutable value. The Joker has Rank RankJoker and Suit SuitNone.
type Card struct {
	Rank Rank
	Suit Suit
}

// Joker is the single Joker of the deck.
var Joker = Card{Rank: RankJoker}

func (c Card) IsJoker() bool { return c.Rank == RankJoker }

func (c Card) String() string {
	if c.IsJoker() {
		return "JOKER"
	}
	return c.Rank.String() + c.Suit.String()
}

// MarshalText encodes the card in its display form, e.g. "10♥", "J♠", "JOKER".
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	v, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCard parses the display form produced by Card.String. The suit may be
// given as a symbol or a single letter (S, H, D, C).
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "JOKER") {
		return Joker, nil
	}
	for _, sym := range []string{"♠", "♥", "♦", "♣"} {
		if strings.HasSuffix(s, sym) {
			return parseRankSuit(strings.TrimSuffix(s, sym), sym)
		}
	}
	if len(s) >= 2 {
		return parseRankSuit(s[:len(s)-1], s[len(s)-1:])
	}
	return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
}

func parseRankSuit(rankStr, suitStr string) (Card, error) {
	suit, err := ParseSuit(suitStr)
	if err != nil || suit == SuitNone {
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidCard, rankStr+suitStr)
	}
	var rank Rank
	switch strings.ToUpper(rankStr) {
	case "J":
		rank = RankJack
	case "Q":
		rank = RankQueen
	case "K":
		rank = RankKing
	case "A":
		rank = RankAce
	default:
		n, err := strconv.Atoi(rankStr)
		if err != nil || n < int(RankTwo) || n > int(RankTen) {
			return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCard, rankStr+suitStr)
		}
		rank = Rank(n)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// SuitOf returns the printed suit of a card, SuitNone for the Joker.
func SuitOf(c Card) Suit {
	if c.IsJoker() {
		return SuitNone
	}
	return c.Suit
}

// RawStrength is the trump-independent strength of a rank.
func RawStrength(r Rank) int {
	if r == RankJoker {
		return JokerStrength
	}
	return int(r)
}

// BuildDeck returns the 41 play cards (5 through A in every suit plus the
// Joker) in a fixed order. Shuffling is left to the caller.
func BuildDeck() []Card {
	deck := make([]Card, 0, PlayDeckSize)
	for _, s := range Suits {
		for r := RankFive; r <= RankAce; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return append(deck, Joker)
}

// ScoreCards returns the twelve 2-4 cards tables use to mark team totals.
func ScoreCards() []Card {
	cards := make([]Card, 0, 12)
	for _, s := range Suits {
		for r := RankTwo; r <= RankFour; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return cards
}

// Domain returns the full 53-card set: the play deck followed by the score cards.
func Domain() []Card {
	return append(BuildDeck(), ScoreCards()...)
}

func containsCard(hand []Card, c Card) bool {
	return indexOfCard(hand, c) >= 0
}

func indexOfCard(hand []Card, c Card) int {
	for i, h := range hand {
		if h == c {
			return i
		}
	}
	return -1
}

func removeCard(hand []Card, c Card) []Card {
	i := indexOfCard(hand, c)
	if i < 0 {
		return hand
	}
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:i]...)
	return append(out, hand[i+1:]...)
}
