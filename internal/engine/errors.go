// internal/engine/errors.go
package engine

import "errors"

// Recoverable rule errors. A command that fails with one of these leaves the
// game untouched unless noted otherwise.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrWrongPhase         = errors.New("command not allowed in current phase")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrInvalidDeclaration = errors.New("invalid declaration")
	ErrAlreadyPassed      = errors.New("player already passed")
	ErrMustDeclareBroken  = errors.New("hand holds all four jacks; broken must be declared")
	ErrInvalidFollow      = errors.New("must follow base suit")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrInvalidCard        = errors.New("invalid card")
	ErrInvalidSuit        = errors.New("invalid suit")
	ErrBaseSuitRequired   = errors.New("joker led; base suit must be selected first")
	ErrBaseSuitNotPending = errors.New("no base suit selection pending")
	ErrNegriNotSelected   = errors.New("negri card not selected")
	ErrNegriAlreadyChosen = errors.New("negri card already selected")
	ErrInvalidOpen        = errors.New("open declaration not allowed")
	ErrSelfTeamReport     = errors.New("cannot report a player on your own team")
	ErrNoSuchViolation    = errors.New("no open violation of that type for player")
	ErrInvalidSeats       = errors.New("a match needs exactly four distinct players")
	ErrMatchOver          = errors.New("match is over")
)
