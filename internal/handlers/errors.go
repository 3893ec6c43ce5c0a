// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/jason-s-yu/meitra/internal/game"
)

var (
	errUnknownMessage = errors.New("unknown message type")
	errBadPayload     = errors.New("invalid message payload")
	errUnauthorized   = errors.New("missing or invalid auth token")
	errNotFound       = errors.New("match not found")
)

// errorCodes are the stable identifiers clients switch on. The first match
// in errors.Is order wins.
var errorCodes = []struct {
	err  error
	code string
}{
	{engine.ErrNotYourTurn, "not-your-turn"},
	{engine.ErrWrongPhase, "wrong-phase"},
	{engine.ErrUnknownPlayer, "unknown-player"},
	{engine.ErrInvalidDeclaration, "invalid-declaration"},
	{engine.ErrAlreadyPassed, "already-passed"},
	{engine.ErrMustDeclareBroken, "must-declare-broken"},
	{engine.ErrInvalidFollow, "invalid-follow"},
	{engine.ErrCardNotInHand, "card-not-in-hand"},
	{engine.ErrInvalidCard, "invalid-card"},
	{engine.ErrInvalidSuit, "invalid-suit"},
	{engine.ErrBaseSuitRequired, "base-suit-required"},
	{engine.ErrBaseSuitNotPending, "base-suit-not-pending"},
	{engine.ErrNegriNotSelected, "negri-not-selected"},
	{engine.ErrNegriAlreadyChosen, "negri-already-selected"},
	{engine.ErrInvalidOpen, "invalid-open"},
	{engine.ErrSelfTeamReport, "self-team-report"},
	{engine.ErrNoSuchViolation, "no-such-violation"},
	{engine.ErrInvalidSeats, "invalid-seats"},
	{engine.ErrMatchOver, "match-over"},
	{game.ErrNotStarted, "not-started"},
	{game.ErrAlreadyStarted, "already-started"},
	{game.ErrClosed, "match-closed"},
	{errUnknownMessage, "unknown-type"},
	{errBadPayload, "invalid-payload"},
	{errUnauthorized, "unauthorized"},
	{errNotFound, "not-found"},
	{errStatsDisabled, "unavailable"},
}

// errorCode maps an error to its wire code; anything unrecognised is "internal".
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
