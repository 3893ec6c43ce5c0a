// cmd/simulate/simulate_test.go
package main

import (
	"testing"

	"github.com/jason-s-yu/meitra/internal/autoplay"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMatchFinishes(t *testing.T) {
	rules := engine.DefaultRules()
	rules.CreditOpponentsOnFailure = true

	for seed := int64(1); seed <= 5; seed++ {
		sum, err := runMatch(seed, rules, autoplay.Policy{Bid: true}, 200)
		require.NoError(t, err, "seed %d", seed)
		require.True(t, sum.Finished, "seed %d", seed)

		assert.GreaterOrEqual(t, sum.Scores[sum.WinningTeam], rules.PointsToWin)
		assert.Equal(t, sum.Rounds, len(sum.Results))
		assert.Equal(t, sum.Rounds, sum.Made+sum.Failed)
	}
}

func TestRunMatchStopsAtRoundLimit(t *testing.T) {
	rules := engine.DefaultRules()
	rules.PointsToWin = 1000

	sum, err := runMatch(3, rules, autoplay.Policy{Bid: true}, 2)
	require.NoError(t, err)
	assert.False(t, sum.Finished)
	assert.Positive(t, sum.Rounds)
	assert.LessOrEqual(t, sum.Rounds, 2)
}

func TestSameSeedSameMatch(t *testing.T) {
	rules := engine.DefaultRules()
	rules.CreditOpponentsOnFailure = true

	a, err := runMatch(42, rules, autoplay.Policy{Bid: true}, 200)
	require.NoError(t, err)
	b, err := runMatch(42, rules, autoplay.Policy{Bid: true}, 200)
	require.NoError(t, err)
	assert.Equal(t, a.Scores, b.Scores)
	assert.Equal(t, a.Rounds, b.Rounds)
}
