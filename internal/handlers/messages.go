// internal/handlers/messages.go
package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/jason-s-yu/meitra/internal/game"
)

// Message types that do not map to an engine command.
const (
	msgPing = "ping"
	msgSync = "sync"
)

// ClientMessage represents the structure for incoming WebSocket messages.
// Only the fields relevant to Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	Trump string `json:"trump,omitempty"` // declare-blow
	Pairs int    `json:"pairs,omitempty"` // declare-blow

	// Card is a display or letter form such as "Q♠", "QS", "10H" or "JOKER".
	Card string `json:"card,omitempty"`
	Suit string `json:"suit,omitempty"` // select-base-suit

	Violation string `json:"violation,omitempty"` // report-violation
	Offender  string `json:"offender,omitempty"`  // report-violation, player id
}

// ErrorFrame is sent to a single client whose message was rejected.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}

func newErrorFrame(request string, err error) ErrorFrame {
	return ErrorFrame{Type: "error", Code: errorCode(err), Message: err.Error(), Request: request}
}

// Command decodes the message into the engine command issued by userID.
func (msg ClientMessage) Command(userID uuid.UUID) (engine.Command, error) {
	switch msg.Type {
	case game.ActionDeclareBlow:
		trump, err := engine.ParseTrump(msg.Trump)
		if err != nil {
			return nil, err
		}
		return engine.DeclareBlow{PlayerID: userID, Trump: trump, Pairs: msg.Pairs}, nil
	case game.ActionPassBlow:
		return engine.PassBlow{PlayerID: userID}, nil
	case game.ActionDeclareBroken:
		return engine.DeclareBroken{PlayerID: userID}, nil
	case game.ActionSelectNegri:
		card, err := engine.ParseCard(msg.Card)
		if err != nil {
			return nil, err
		}
		return engine.SelectNegri{PlayerID: userID, Card: card}, nil
	case game.ActionPlayCard:
		card, err := engine.ParseCard(msg.Card)
		if err != nil {
			return nil, err
		}
		return engine.PlayCard{PlayerID: userID, Card: card}, nil
	case game.ActionSelectBaseSuit:
		suit, err := engine.ParseSuit(msg.Suit)
		if err != nil {
			return nil, err
		}
		return engine.SelectBaseSuit{PlayerID: userID, Suit: suit}, nil
	case game.ActionDeclareOpen:
		return engine.DeclareOpen{PlayerID: userID}, nil
	case game.ActionReportViolation:
		offender, err := uuid.Parse(msg.Offender)
		if err != nil {
			return nil, fmt.Errorf("%w: offender: %v", errBadPayload, err)
		}
		if msg.Violation == "" {
			return nil, fmt.Errorf("%w: violation type required", errBadPayload)
		}
		return engine.ReportViolation{
			ReporterID: userID,
			Type:       engine.ViolationType(msg.Violation),
			OffenderID: offender,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
}
