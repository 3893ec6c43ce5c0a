// internal/engine/state.go
package engine

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const (
	PlayerCount    = 4
	HandSize       = 10
	TricksPerRound = 10
	PlayDeckSize   = 41
	MinPairs       = 6
	MaxPairs       = 10

	DefaultPointsToWin   = 10
	DefaultChomboPenalty = 5
)

// Phase is the top-level state of a match.
type Phase string

const (
	PhaseNone      Phase = ""
	PhaseDeal      Phase = "deal"
	PhaseBlow      Phase = "blow"
	PhasePlay      Phase = "play"
	PhaseWaiting   Phase = "waiting"
	PhaseMatchOver Phase = "match-over"
)

// Player is a seat at the table. Team is fixed at seat % 2.
type Player struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Seat              int       `json:"seat"`
	Team              int       `json:"team"`
	IsCOM             bool      `json:"isCom"`
	Hand              []Card    `json:"hand"`
	IsPasser          bool      `json:"isPasser"`
	HasBroken         bool      `json:"hasBroken"`
	HasRequiredBroken bool      `json:"hasRequiredBroken"`
}

// BlowDeclaration is a bid of a trump and a number of tricks.
type BlowDeclaration struct {
	PlayerID  uuid.UUID `json:"playerId"`
	Trump     TrumpType `json:"trumpType"`
	Pairs     int       `json:"numberOfPairs"`
	Timestamp time.Time `json:"timestamp"`
}

// Beats reports whether d outranks other. Every declaration beats nil.
func (d BlowDeclaration) Beats(other *BlowDeclaration) bool {
	if other == nil {
		return true
	}
	if d.Pairs != other.Pairs {
		return d.Pairs > other.Pairs
	}
	return d.Trump.Strength() > other.Trump.Strength()
}

type BlowStatus string

const (
	BlowStatusAwaiting  BlowStatus = "awaiting-declaration"
	BlowStatusCancelled BlowStatus = "round-cancelled"
	BlowStatusResolved  BlowStatus = "resolved"
)

type BlowState struct {
	Status           BlowStatus        `json:"status"`
	CurrentTrump     TrumpType         `json:"currentTrump"`
	CurrentHighest   *BlowDeclaration  `json:"currentHighestDeclaration"`
	Declarations     []BlowDeclaration `json:"declarations"`
	LastPasser       uuid.UUID         `json:"lastPasser"`
	IsRoundCancelled bool              `json:"isRoundCancelled"`
}

// PlayedCard is a card placed into a field by a player.
type PlayedCard struct {
	PlayerID uuid.UUID `json:"playerId"`
	Card     Card      `json:"card"`
}

// Field is the trick in progress.
type Field struct {
	Cards    []PlayedCard `json:"cards"`
	BaseCard *Card        `json:"baseCard"`
	BaseSuit Suit         `json:"baseSuit"`
	DealerID uuid.UUID    `json:"dealerId"`
}

// AwaitingBaseSuit is true while a Joker-led field has no base suit.
func (f *Field) AwaitingBaseSuit() bool {
	return f != nil && len(f.Cards) > 0 && f.Cards[0].Card.IsJoker() && f.BaseSuit == SuitNone
}

func (f *Field) cards() []Card {
	out := make([]Card, len(f.Cards))
	for i, pc := range f.Cards {
		out[i] = pc.Card
	}
	return out
}

// CompletedField is a resolved trick. WinnerID leads the next field.
type CompletedField struct {
	Cards      []PlayedCard `json:"cards"`
	BaseSuit   Suit         `json:"baseSuit"`
	DealerID   uuid.UUID    `json:"dealerId"`
	WinnerID   uuid.UUID    `json:"winnerId"`
	WinnerTeam int          `json:"winnerTeam"`
}

type PlayState struct {
	DeclarerID     uuid.UUID          `json:"declarerId"`
	CurrentField   *Field             `json:"currentField"`
	NegriCard      *Card              `json:"negriCard"`
	NegriByPlayer  map[uuid.UUID]Card `json:"negriByPlayer"`
	Fields         []CompletedField   `json:"fields"`
	LastWinnerID   uuid.UUID          `json:"lastWinnerId"`
	OpenDeclared   bool               `json:"openDeclared"`
	OpenDeclarerID uuid.UUID          `json:"openDeclarerId"`
	OpenFailed     bool               `json:"openFailed"`
}

// TeamScoreRecord is one team's entry for a round it scored in.
type TeamScoreRecord struct {
	Round         int       `json:"round"`
	Trump         TrumpType `json:"trump"`
	Declaring     bool      `json:"declaring"`
	DeclaredPairs int       `json:"declaredPairs"`
	TricksWon     int       `json:"wonTricks"`
	Points        float64   `json:"points"`
}

type TeamScore struct {
	Total     float64           `json:"total"`
	Penalties float64           `json:"penalties"`
	Records   []TeamScoreRecord `json:"records"`
}

// Rules are the per-match house rules the engine honours.
type Rules struct {
	PointsToWin              float64 `json:"pointsToWin"`
	ChomboPenalty            float64 `json:"chomboPenalty"`
	StrictBroken             bool    `json:"strictBroken"`
	LenientFollow            bool    `json:"lenientFollow"`
	CreditOpponentsOnFailure bool    `json:"creditOpponentsOnFailure"`
}

func DefaultRules() Rules {
	return Rules{
		PointsToWin:   DefaultPointsToWin,
		ChomboPenalty: DefaultChomboPenalty,
	}
}

// Game is the aggregate root for a single match. It is not safe for
// concurrent use; callers serialize access.
type Game struct {
	ID            uuid.UUID         `json:"id"`
	Players       []*Player         `json:"players"`
	Teams         map[uuid.UUID]int `json:"teams"`
	Phase         Phase             `json:"gamePhase"`
	Round         int               `json:"currentRound"`
	Deals         int               `json:"deals"`
	BlowStartSeat int               `json:"blowStartSeat"`
	TurnSeat      int               `json:"currentPlayerIndex"`
	Agari         *Card             `json:"agari"`
	Blow          BlowState         `json:"blowState"`
	Play          PlayState         `json:"playState"`
	Scores        [2]TeamScore      `json:"teamScores"`
	Violations    []ChomboViolation `json:"chomboViolations"`
	PointsToWin   float64           `json:"pointsToWin"`
	Rules         Rules             `json:"rules"`
	WinningTeam   *int              `json:"winningTeam"`

	rng     *rand.Rand
	now     func() time.Time
	pending []Event
}

// Seat describes a player joining a match, in seat order.
type Seat struct {
	ID    uuid.UUID
	Name  string
	IsCOM bool
}

type Option func(*Game)

// WithRand sets the source used to shuffle the deck.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithClock sets the clock used to timestamp declarations and violations.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// Restore reattaches runtime collaborators to a game decoded from storage.
func (g *Game) Restore(opts ...Option) {
	for _, o := range opts {
		o(g)
	}
}

func (g *Game) random() *rand.Rand {
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g.rng
}

func (g *Game) clock() time.Time {
	if g.now == nil {
		return time.Now()
	}
	return g.now()
}

// PlayerByID returns the seat for id, or nil.
func (g *Game) PlayerByID(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer is the seat whose action the engine is waiting for.
func (g *Game) CurrentPlayer() *Player {
	if g.TurnSeat < 0 || g.TurnSeat >= len(g.Players) {
		return nil
	}
	return g.Players[g.TurnSeat]
}

// Declarer is the winner of the current round's Blow, or nil before resolution.
func (g *Game) Declarer() *Player {
	if g.Play.DeclarerID == uuid.Nil {
		return nil
	}
	return g.PlayerByID(g.Play.DeclarerID)
}

// TricksByTeam counts completed fields won by each team this round.
func (g *Game) TricksByTeam() [2]int {
	var won [2]int
	for _, f := range g.Play.Fields {
		won[f.WinnerTeam]++
	}
	return won
}

// TeamTotals returns the running totals of both teams.
func (g *Game) TeamTotals() [2]float64 {
	return [2]float64{g.Scores[0].Total, g.Scores[1].Total}
}

func (g *Game) emit(ev Event) {
	g.pending = append(g.pending, ev)
}

func (g *Game) drain() []Event {
	evs := g.pending
	g.pending = nil
	return evs
}

func (g *Game) fail(err error) ([]Event, error) {
	g.pending = nil
	return nil, err
}
