// internal/engine/commands.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Command is the closed set of player actions the engine accepts.
type Command interface {
	Actor() uuid.UUID
	isCommand()
}

type DeclareBlow struct {
	PlayerID uuid.UUID
	Trump    TrumpType
	Pairs    int
}

type PassBlow struct {
	PlayerID uuid.UUID
}

type DeclareBroken struct {
	PlayerID uuid.UUID
}

type SelectNegri struct {
	PlayerID uuid.UUID
	Card     Card
}

type PlayCard struct {
	PlayerID uuid.UUID
	Card     Card
}

type SelectBaseSuit struct {
	PlayerID uuid.UUID
	Suit     Suit
}

type DeclareOpen struct {
	PlayerID uuid.UUID
}

type ReportViolation struct {
	ReporterID uuid.UUID
	Type       ViolationType
	OffenderID uuid.UUID
}

func (c DeclareBlow) Actor() uuid.UUID     { return c.PlayerID }
func (c PassBlow) Actor() uuid.UUID        { return c.PlayerID }
func (c DeclareBroken) Actor() uuid.UUID   { return c.PlayerID }
func (c SelectNegri) Actor() uuid.UUID     { return c.PlayerID }
func (c PlayCard) Actor() uuid.UUID        { return c.PlayerID }
func (c SelectBaseSuit) Actor() uuid.UUID  { return c.PlayerID }
func (c DeclareOpen) Actor() uuid.UUID     { return c.PlayerID }
func (c ReportViolation) Actor() uuid.UUID { return c.ReporterID }

func (DeclareBlow) isCommand()     {}
func (PassBlow) isCommand()        {}
func (DeclareBroken) isCommand()   {}
func (SelectNegri) isCommand()     {}
func (PlayCard) isCommand()        {}
func (SelectBaseSuit) isCommand()  {}
func (DeclareOpen) isCommand()     {}
func (ReportViolation) isCommand() {}

// Apply dispatches a command to its entry point.
func (g *Game) Apply(cmd Command) ([]Event, error) {
	switch c := cmd.(type) {
	case DeclareBlow:
		return g.Declare(c.PlayerID, c.Trump, c.Pairs)
	case PassBlow:
		return g.Pass(c.PlayerID)
	case DeclareBroken:
		return g.DeclareBroken(c.PlayerID)
	case SelectNegri:
		return g.SelectNegri(c.PlayerID, c.Card)
	case PlayCard:
		return g.PlayCard(c.PlayerID, c.Card)
	case SelectBaseSuit:
		return g.SelectBaseSuit(c.PlayerID, c.Suit)
	case DeclareOpen:
		return g.DeclareOpen(c.PlayerID)
	case ReportViolation:
		return g.ReportViolation(c.ReporterID, c.Type, c.OffenderID)
	default:
		panic(fmt.Sprintf("engine: unhandled command %T", cmd))
	}
}
