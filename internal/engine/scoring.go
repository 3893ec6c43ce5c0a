// internal/engine/scoring.go
package engine

// ComputeRoundScore converts declared pairs X and tricks won Y into points:
// 0.5*(Y-X) + X - 5 when the declaration is made, Y - X otherwise.
func ComputeRoundScore(declared, won int) float64 {
	x, y := float64(declared), float64(won)
	if won >= declared {
		return 0.5*(y-x) + x - 5
	}
	return y - x
}

// scoreRound applies the round's points and moves to Waiting, or ends the
// match when a team reaches PointsToWin.
func (g *Game) scoreRound() {
	decl := *g.Blow.CurrentHighest
	declTeam := g.Teams[decl.PlayerID]
	won := g.TricksByTeam()[declTeam]
	points := ComputeRoundScore(decl.Pairs, won)

	credited, delta := declTeam, points
	if points < 0 && g.Rules.CreditOpponentsOnFailure {
		credited, delta = 1-declTeam, -points
	}
	score := &g.Scores[credited]
	score.Total += delta
	score.Records = append(score.Records, TeamScoreRecord{
		Round:         g.Round,
		Trump:         decl.Trump,
		Declaring:     credited == declTeam,
		DeclaredPairs: decl.Pairs,
		TricksWon:     won,
		Points:        delta,
	})

	g.Phase = PhaseWaiting
	g.emit(RoundResults{
		Round:         g.Round,
		DeclarerID:    decl.PlayerID,
		DeclaringTeam: declTeam,
		Trump:         decl.Trump,
		DeclaredPairs: decl.Pairs,
		TricksWon:     won,
		Points:        points,
		CreditedTeam:  credited,
		Scores:        g.TeamTotals(),
	})

	if score.Total >= g.PointsToWin {
		team := credited
		g.WinningTeam = &team
		g.Phase = PhaseMatchOver
		g.emit(GameOver{Round: g.Round, WinningTeam: team, Scores: g.TeamTotals()})
	}
}
