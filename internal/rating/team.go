// internal/rating/team.go
package rating

import "math"

// UpdateTeams rates a finished match between two partnerships. Every player
// is updated against a composite opponent: the mean rating of the other team
// with the root-mean-square of its deviations. Both teams' composites are
// taken before any update.
func UpdateTeams(teams [2][]Rating, winningTeam int) [2][]Rating {
	var opponents [2]glicko2
	for i, team := range teams {
		opponents[1-i] = composite(team)
	}

	var out [2][]Rating
	for i, team := range teams {
		score := 0.0
		if i == winningTeam {
			score = 1.0
		}
		out[i] = make([]Rating, len(team))
		for j, r := range team {
			out[i][j] = update(r.toGlicko(), opponents[i], score).toRating()
		}
	}
	return out
}

func composite(team []Rating) glicko2 {
	if len(team) == 0 {
		return Default().toGlicko()
	}
	var sumMu, sumPhi2, sumSigma float64
	for _, r := range team {
		s := r.toGlicko()
		sumMu += s.mu
		sumPhi2 += s.phi * s.phi
		sumSigma += s.sigma
	}
	n := float64(len(team))
	return glicko2{mu: sumMu / n, phi: math.Sqrt(sumPhi2 / n), sigma: sumSigma / n}
}
