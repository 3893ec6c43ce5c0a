// internal/game/actions.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/meitra/internal/engine"
)

// Action names shared by the websocket protocol and the action log.
const (
	ActionDeclareBlow     = "declare-blow"
	ActionPassBlow        = "pass-blow"
	ActionDeclareBroken   = "declare-broken"
	ActionSelectNegri     = "select-negri"
	ActionPlayCard        = "play-card"
	ActionSelectBaseSuit  = "select-base-suit"
	ActionDeclareOpen     = "declare-open"
	ActionReportViolation = "report-violation"

	actionMatchStart = "match_start"
	actionNextRound  = "next_round"
	actionConnect    = "player_connect"
	actionDisconnect = "player_disconnect"
)

// describeCommand returns the log name and payload of a command.
func describeCommand(cmd engine.Command) (string, map[string]interface{}) {
	switch c := cmd.(type) {
	case engine.DeclareBlow:
		return ActionDeclareBlow, map[string]interface{}{"trump": c.Trump.String(), "pairs": c.Pairs}
	case engine.PassBlow:
		return ActionPassBlow, nil
	case engine.DeclareBroken:
		return ActionDeclareBroken, nil
	case engine.SelectNegri:
		return ActionSelectNegri, map[string]interface{}{"card": c.Card.String()}
	case engine.PlayCard:
		return ActionPlayCard, map[string]interface{}{"card": c.Card.String()}
	case engine.SelectBaseSuit:
		return ActionSelectBaseSuit, map[string]interface{}{"suit": c.Suit.String()}
	case engine.DeclareOpen:
		return ActionDeclareOpen, nil
	case engine.ReportViolation:
		return ActionReportViolation, map[string]interface{}{"type": string(c.Type), "offender": c.OffenderID.String()}
	default:
		panic(fmt.Sprintf("game: unhandled command %T", cmd))
	}
}
