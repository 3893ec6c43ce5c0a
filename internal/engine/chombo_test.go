// internal/engine/chombo_test.go
package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allViolationTypes = []ViolationType{
	ViolationNegriForgotten,
	ViolationWrongSuitPlay,
	ViolationFourJackNotDeclared,
	ViolationLastCardIsJoker,
	ViolationInvalidBroken,
	ViolationInvalidOpen,
}

// forgetNegri resolves Herz 7 for seat 0 and has the declarer lead without
// setting a negri aside.
func forgetNegri(t *testing.T, g *Game, ids []uuid.UUID) {
	t.Helper()
	rig(g, scenarioHands, scenarioAgari)
	resolveHerz7(t, g, ids)
	_, err := g.PlayCard(ids[0], card("AS"))
	require.ErrorIs(t, err, ErrNegriNotSelected)
}

func TestReportOwnTeamRejected(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	forgetNegri(t, g, ids)

	for _, vt := range allViolationTypes {
		_, err := g.ReportViolation(ids[2], vt, ids[0])
		assert.ErrorIs(t, err, ErrSelfTeamReport, "%s", vt)
		_, err = g.ReportViolation(ids[0], vt, ids[0])
		assert.ErrorIs(t, err, ErrSelfTeamReport, "%s self", vt)
	}
	assert.Len(t, g.OpenViolations(), 1)
	assert.Zero(t, g.Scores[0].Total)
}

func TestReportAppliesPenalty(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	forgetNegri(t, g, ids)

	_, err := g.PlayCard(ids[0], card("AS"))
	require.ErrorIs(t, err, ErrNegriNotSelected)
	require.Len(t, g.Violations, 1, "one open violation per type and player")

	_, err = g.ReportViolation(ids[1], ViolationWrongSuitPlay, ids[0])
	assert.ErrorIs(t, err, ErrNoSuchViolation)
	_, err = g.ReportViolation(ids[1], ViolationNegriForgotten, ids[2])
	assert.ErrorIs(t, err, ErrNoSuchViolation)

	evs, err := g.ReportViolation(ids[1], ViolationNegriForgotten, ids[0])
	require.NoError(t, err)
	rep, ok := findEvent[ViolationReported](evs)
	require.True(t, ok)
	assert.Equal(t, float64(DefaultChomboPenalty), rep.Penalty)
	assert.Equal(t, ids[0], rep.Violation.PlayerID)
	require.NotNil(t, rep.Violation.ReportedBy)
	assert.Equal(t, ids[1], *rep.Violation.ReportedBy)
	assert.Equal(t, [2]float64{-5, 0}, rep.Scores)
	assert.Equal(t, 5.0, g.Scores[0].Penalties)

	_, err = g.ReportViolation(ids[3], ViolationNegriForgotten, ids[0])
	assert.ErrorIs(t, err, ErrNoSuchViolation, "a violation is penalized once")
	assert.Equal(t, -5.0, g.Scores[0].Total)

	// a fresh offence after the report opens a new violation
	_, err = g.PlayCard(ids[0], card("AS"))
	require.ErrorIs(t, err, ErrNegriNotSelected)
	assert.Len(t, g.Violations, 2)
	assert.Len(t, g.OpenViolations(), 1)
}

func TestReportCustomPenalty(t *testing.T) {
	rules := DefaultRules()
	rules.ChomboPenalty = 3
	g, ids := newTestGame(t, rules)
	forgetNegri(t, g, ids)

	_, err := g.ReportViolation(ids[3], ViolationNegriForgotten, ids[0])
	require.NoError(t, err)
	assert.Equal(t, -3.0, g.Scores[0].Total)
}

func TestReportValidation(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	forgetNegri(t, g, ids)

	_, err := g.ReportViolation(uuid.New(), ViolationNegriForgotten, ids[0])
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = g.ReportViolation(ids[1], ViolationNegriForgotten, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = g.ReportViolation(ids[1], ViolationType("slow-play"), ids[0])
	assert.ErrorIs(t, err, ErrNoSuchViolation)

	fresh, err := NewGame(uuid.New(), []Seat{{ID: ids[0]}, {ID: ids[1]}, {ID: ids[2]}, {ID: ids[3]}}, DefaultRules())
	require.NoError(t, err)
	_, err = fresh.ReportViolation(ids[1], ViolationNegriForgotten, ids[0])
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestViolationsExpireOnNextRound(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	playScenario(t, g, ids, 7)
	require.Equal(t, PhaseWaiting, g.Phase)

	// seat 3 kept only the joker after the ninth trick
	open := g.OpenViolations()
	require.Len(t, open, 1)
	assert.Equal(t, ViolationLastCardIsJoker, open[0].Type)
	assert.Equal(t, ids[3], open[0].PlayerID)
	assert.Equal(t, 1, open[0].Round)

	_, err := g.StartNextRound()
	require.NoError(t, err)
	assert.Empty(t, g.OpenViolations())
	require.Len(t, g.Violations, 1)
	assert.True(t, g.Violations[0].IsExpired)

	_, err = g.ReportViolation(ids[0], ViolationLastCardIsJoker, ids[3])
	assert.ErrorIs(t, err, ErrNoSuchViolation)
}

func TestReportDuringWaiting(t *testing.T) {
	g, ids := newTestGame(t, DefaultRules())
	playScenario(t, g, ids, 7)

	_, err := g.ReportViolation(ids[0], ViolationLastCardIsJoker, ids[3])
	require.NoError(t, err)
	assert.Equal(t, [2]float64{2.5, -5}, g.TeamTotals())
}
