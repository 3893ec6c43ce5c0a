// internal/handlers/messages_test.go
package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/jason-s-yu/meitra/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMessageCommand(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	queen := engine.Card{Rank: engine.RankQueen, Suit: engine.Spades}

	tests := []struct {
		msg  ClientMessage
		want engine.Command
	}{
		{ClientMessage{Type: game.ActionDeclareBlow, Trump: "tra", Pairs: 7}, engine.DeclareBlow{PlayerID: me, Trump: engine.TrumpTra, Pairs: 7}},
		{ClientMessage{Type: game.ActionPassBlow}, engine.PassBlow{PlayerID: me}},
		{ClientMessage{Type: game.ActionDeclareBroken}, engine.DeclareBroken{PlayerID: me}},
		{ClientMessage{Type: game.ActionSelectNegri, Card: "QS"}, engine.SelectNegri{PlayerID: me, Card: queen}},
		{ClientMessage{Type: game.ActionPlayCard, Card: "Q♠"}, engine.PlayCard{PlayerID: me, Card: queen}},
		{ClientMessage{Type: game.ActionPlayCard, Card: "joker"}, engine.PlayCard{PlayerID: me, Card: engine.Joker}},
		{ClientMessage{Type: game.ActionSelectBaseSuit, Suit: "hearts"}, engine.SelectBaseSuit{PlayerID: me, Suit: engine.Hearts}},
		{ClientMessage{Type: game.ActionDeclareOpen}, engine.DeclareOpen{PlayerID: me}},
		{
			ClientMessage{Type: game.ActionReportViolation, Violation: string(engine.ViolationNegriForgotten), Offender: other.String()},
			engine.ReportViolation{ReporterID: me, Type: engine.ViolationNegriForgotten, OffenderID: other},
		},
	}
	for _, tt := range tests {
		t.Run(tt.msg.Type, func(t *testing.T) {
			cmd, err := tt.msg.Command(me)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestClientMessageCommandErrors(t *testing.T) {
	me := uuid.New()
	tests := []struct {
		msg  ClientMessage
		code string
	}{
		{ClientMessage{Type: "deal"}, "unknown-type"},
		{ClientMessage{Type: game.ActionDeclareBlow, Trump: "spades-ish", Pairs: 6}, "invalid-declaration"},
		{ClientMessage{Type: game.ActionPlayCard, Card: "ZZ"}, "invalid-card"},
		{ClientMessage{Type: game.ActionSelectBaseSuit, Suit: "stars"}, "invalid-suit"},
		{ClientMessage{Type: game.ActionReportViolation, Violation: "negri-forgotten", Offender: "nobody"}, "invalid-payload"},
		{ClientMessage{Type: game.ActionReportViolation, Offender: uuid.NewString()}, "invalid-payload"},
	}
	for _, tt := range tests {
		_, err := tt.msg.Command(me)
		require.Error(t, err, tt.msg.Type)
		assert.Equal(t, tt.code, errorCode(err), tt.msg.Type)
	}
}

func TestErrorCodeUnwraps(t *testing.T) {
	assert.Equal(t, "not-your-turn", errorCode(fmt.Errorf("seat 2: %w", engine.ErrNotYourTurn)))
	assert.Equal(t, "match-closed", errorCode(game.ErrClosed))
	assert.Equal(t, "internal", errorCode(errors.New("disk on fire")))

	frame := newErrorFrame(game.ActionPlayCard, engine.ErrInvalidFollow)
	assert.Equal(t, ErrorFrame{Type: "error", Code: "invalid-follow", Message: engine.ErrInvalidFollow.Error(), Request: "play-card"}, frame)
}
