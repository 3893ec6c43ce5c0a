// internal/engine/events.go
package engine

import "github.com/google/uuid"

// EventKind is the stable wire name of an event.
type EventKind string

const (
	KindHandDealt         EventKind = "hand-dealt"
	KindNewRoundStarted   EventKind = "new-round-started"
	KindBlowUpdated       EventKind = "blow-updated"
	KindRoundCancelled    EventKind = "round-cancelled"
	KindBroken            EventKind = "broken"
	KindBlowResolved      EventKind = "blow-resolved"
	KindAgariTaken        EventKind = "agari-taken"
	KindNegriSelected     EventKind = "negri-selected"
	KindPlaySetupComplete EventKind = "play-setup-complete"
	KindTurnUpdated       EventKind = "turn-updated"
	KindFieldUpdated      EventKind = "field-updated"
	KindFieldComplete     EventKind = "field-complete"
	KindOpenDeclared      EventKind = "open-declared"
	KindRoundResults      EventKind = "round-results"
	KindViolationReported EventKind = "violation-reported"
	KindGameOver          EventKind = "game-over"
)

// Event is the closed set of state deltas produced by accepted commands.
// Recipient is uuid.Nil for events every seat may see.
type Event interface {
	Kind() EventKind
	Recipient() uuid.UUID
	isEvent()
}

type public struct{}

func (public) Recipient() uuid.UUID { return uuid.Nil }
func (public) isEvent()             {}

type private struct {
	To uuid.UUID `json:"-"`
}

func (p private) Recipient() uuid.UUID { return p.To }
func (private) isEvent()               {}

// HandDealt carries a player's fresh hand.
type HandDealt struct {
	private
	Round int    `json:"round"`
	Hand  []Card `json:"hand"`
}

type NewRoundStarted struct {
	public
	Round        int        `json:"round"`
	Redeal       bool       `json:"redeal"`
	StartPlayer  uuid.UUID  `json:"startPlayerId"`
	Scores       [2]float64 `json:"scores"`
	PointsToWin  float64    `json:"pointsToWin"`
	HandSizes    []int      `json:"handSizes"`
	AgariPending bool       `json:"agariPending"`
}

type BlowUpdated struct {
	public
	Declarations   []BlowDeclaration `json:"declarations"`
	CurrentHighest *BlowDeclaration  `json:"currentHighest"`
	LastPasser     uuid.UUID         `json:"lastPasser"`
	Passers        []uuid.UUID       `json:"passers"`
	NextPlayer     uuid.UUID         `json:"nextPlayerId"`
}

type RoundCancelled struct {
	public
	Round             int               `json:"round"`
	Declarations      []BlowDeclaration `json:"declarations"`
	NextStartPlayer   uuid.UUID         `json:"nextStartPlayerId"`
	NextBlowStartSeat int               `json:"nextBlowStartSeat"`
}

// Broken reveals a hand voided by a broken declaration. Forced is set when
// the Blow winner picked up the fourth jack with the agari.
type Broken struct {
	public
	PlayerID uuid.UUID `json:"playerId"`
	Hand     []Card    `json:"hand"`
	Forced   bool      `json:"forced"`
}

type BlowResolved struct {
	public
	DeclarerID    uuid.UUID `json:"declarerId"`
	DeclaringTeam int       `json:"declaringTeam"`
	Trump         TrumpType `json:"trumpType"`
	Pairs         int       `json:"numberOfPairs"`
}

type AgariTaken struct {
	private
	Card Card `json:"card"`
}

type NegriSelected struct {
	private
	Card Card `json:"card"`
}

type PlaySetupComplete struct {
	public
	DeclarerID uuid.UUID `json:"declarerId"`
	Trump      TrumpType `json:"trumpType"`
	Pairs      int       `json:"numberOfPairs"`
	LeadPlayer uuid.UUID `json:"leadPlayerId"`
}

type TurnUpdated struct {
	public
	Phase    Phase     `json:"phase"`
	PlayerID uuid.UUID `json:"playerId"`
}

type FieldUpdated struct {
	public
	Field            Field     `json:"field"`
	PlayedBy         uuid.UUID `json:"playedBy"`
	AwaitingBaseSuit bool      `json:"awaitingBaseSuit"`
	NextPlayer       uuid.UUID `json:"nextPlayerId"`
}

type FieldComplete struct {
	public
	Field        CompletedField `json:"field"`
	TrickNumber  int            `json:"trickNumber"`
	TricksByTeam [2]int         `json:"tricksByTeam"`
	NextPlayer   uuid.UUID      `json:"nextPlayerId"`
}

type OpenDeclared struct {
	public
	PlayerID uuid.UUID `json:"playerId"`
	Hand     []Card    `json:"hand"`
}

type RoundResults struct {
	public
	Round         int        `json:"round"`
	DeclarerID    uuid.UUID  `json:"declarerId"`
	DeclaringTeam int        `json:"declaringTeam"`
	Trump         TrumpType  `json:"trumpType"`
	DeclaredPairs int        `json:"declaredPairs"`
	TricksWon     int        `json:"wonTricks"`
	Points        float64    `json:"points"`
	CreditedTeam  int        `json:"creditedTeam"`
	Scores        [2]float64 `json:"scores"`
}

type ViolationReported struct {
	public
	Violation ChomboViolation `json:"violation"`
	Penalty   float64         `json:"penalty"`
	Scores    [2]float64      `json:"scores"`
}

type GameOver struct {
	public
	Round       int        `json:"round"`
	WinningTeam int        `json:"winningTeam"`
	Scores      [2]float64 `json:"scores"`
}

func (HandDealt) Kind() EventKind         { return KindHandDealt }
func (NewRoundStarted) Kind() EventKind   { return KindNewRoundStarted }
func (BlowUpdated) Kind() EventKind       { return KindBlowUpdated }
func (RoundCancelled) Kind() EventKind    { return KindRoundCancelled }
func (Broken) Kind() EventKind            { return KindBroken }
func (BlowResolved) Kind() EventKind      { return KindBlowResolved }
func (AgariTaken) Kind() EventKind        { return KindAgariTaken }
func (NegriSelected) Kind() EventKind     { return KindNegriSelected }
func (PlaySetupComplete) Kind() EventKind { return KindPlaySetupComplete }
func (TurnUpdated) Kind() EventKind       { return KindTurnUpdated }
func (FieldUpdated) Kind() EventKind      { return KindFieldUpdated }
func (FieldComplete) Kind() EventKind     { return KindFieldComplete }
func (OpenDeclared) Kind() EventKind      { return KindOpenDeclared }
func (RoundResults) Kind() EventKind      { return KindRoundResults }
func (ViolationReported) Kind() EventKind { return KindViolationReported }
func (GameOver) Kind() EventKind          { return KindGameOver }
