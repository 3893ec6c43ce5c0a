// internal/engine/chombo.go
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ViolationType is the closed set of chombo offences.
type ViolationType string

const (
	ViolationNegriForgotten      ViolationType = "negri-forgotten"
	ViolationWrongSuitPlay       ViolationType = "wrong-suit-play"
	ViolationFourJackNotDeclared ViolationType = "four-jack-not-declared"
	ViolationLastCardIsJoker     ViolationType = "last-card-is-joker"
	ViolationInvalidBroken       ViolationType = "invalid-broken-declaration"
	ViolationInvalidOpen         ViolationType = "invalid-open-declaration"
)

var violationTypes = map[ViolationType]bool{
	ViolationNegriForgotten:      true,
	ViolationWrongSuitPlay:       true,
	ViolationFourJackNotDeclared: true,
	ViolationLastCardIsJoker:     true,
	ViolationInvalidBroken:       true,
	ViolationInvalidOpen:         true,
}

func (t ViolationType) Valid() bool { return violationTypes[t] }

// ChomboViolation is a detected offence waiting for an opponent to report it.
type ChomboViolation struct {
	Type       ViolationType `json:"type"`
	PlayerID   uuid.UUID     `json:"playerId"`
	Round      int           `json:"round"`
	Timestamp  time.Time     `json:"timestamp"`
	ReportedBy *uuid.UUID    `json:"reportedBy"`
	IsExpired  bool          `json:"isExpired"`
}

// Open is true while the violation can still be penalized.
func (v ChomboViolation) Open() bool {
	return !v.IsExpired && v.ReportedBy == nil
}

// recordViolation notes an offence. An offender holds at most one open
// violation of each type.
func (g *Game) recordViolation(t ViolationType, playerID uuid.UUID) {
	if g.openViolation(t, playerID) >= 0 {
		return
	}
	g.Violations = append(g.Violations, ChomboViolation{
		Type:      t,
		PlayerID:  playerID,
		Round:     g.Round,
		Timestamp: g.clock(),
	})
}

func (g *Game) openViolation(t ViolationType, playerID uuid.UUID) int {
	for i, v := range g.Violations {
		if v.Type == t && v.PlayerID == playerID && v.Open() {
			return i
		}
	}
	return -1
}

// OpenViolations returns the violations that can still be reported.
func (g *Game) OpenViolations() []ChomboViolation {
	var out []ChomboViolation
	for _, v := range g.Violations {
		if v.Open() {
			out = append(out, v)
		}
	}
	return out
}

// ReportViolation lets a player allege an offence by an opponent. A matching
// open violation costs the offender's team the chombo penalty.
func (g *Game) ReportViolation(reporterID uuid.UUID, t ViolationType, offenderID uuid.UUID) ([]Event, error) {
	reporter := g.PlayerByID(reporterID)
	offender := g.PlayerByID(offenderID)
	if reporter == nil || offender == nil {
		return g.fail(ErrUnknownPlayer)
	}
	if reporter.Team == offender.Team {
		return g.fail(ErrSelfTeamReport)
	}
	switch g.Phase {
	case PhaseBlow, PhasePlay, PhaseWaiting:
	default:
		return g.fail(fmt.Errorf("%w: %s", ErrWrongPhase, g.Phase))
	}
	if !t.Valid() {
		return g.fail(fmt.Errorf("%w: unknown type %q", ErrNoSuchViolation, t))
	}
	i := g.openViolation(t, offenderID)
	if i < 0 {
		return g.fail(ErrNoSuchViolation)
	}

	v := &g.Violations[i]
	rid := reporterID
	v.ReportedBy = &rid
	penalty := g.Rules.ChomboPenalty
	g.Scores[offender.Team].Total -= penalty
	g.Scores[offender.Team].Penalties += penalty

	g.emit(ViolationReported{
		Violation: *v,
		Penalty:   penalty,
		Scores:    g.TeamTotals(),
	})
	return g.drain(), nil
}

// expireViolations closes the reporting window for everything still open.
func (g *Game) expireViolations() {
	for i := range g.Violations {
		if g.Violations[i].Open() {
			g.Violations[i].IsExpired = true
		}
	}
}
