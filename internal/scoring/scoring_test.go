package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreFormula(t *testing.T) {
	// 8*10 + 520/100 + 14*5 = 155.2
	assert.InDelta(t, 155.2, Score(8, 520, 14), 1e-9)
	assert.Equal(t, 0.0, Score(0, 0, 0))
	assert.InDelta(t, 10.5, Score(1, 50, 0), 1e-9)
}

func TestEvaluateLevels(t *testing.T) {
	lvl := Evaluate(8, 520, 14)
	assert.Equal(t, 3, lvl.Level)
	assert.Equal(t, "Budget Boss", lvl.Name)
	assert.InDelta(t, 155.2, lvl.TotalScore, 1e-9)
	assert.False(t, lvl.MaxLevel)
}

func TestTierBoundariesAreHalfOpen(t *testing.T) {
	assert.Equal(t, 1, LevelForScore(0).Level)
	assert.Equal(t, 1, LevelForScore(49.99).Level)
	assert.Equal(t, 2, LevelForScore(50).Level)
	assert.Equal(t, 2, LevelForScore(99.9).Level)
	assert.Equal(t, 3, LevelForScore(100).Level)
	assert.Equal(t, 4, LevelForScore(200).Level)
	assert.Equal(t, 4, LevelForScore(399.9).Level)
	assert.Equal(t, 5, LevelForScore(400).Level)
	assert.Equal(t, 5, LevelForScore(10000).Level)
}

func TestEmptyHistoryIsLevelOne(t *testing.T) {
	lvl := Evaluate(0, 0, 0)
	assert.Equal(t, 1, lvl.Level)
	assert.Equal(t, 0, lvl.ProgressToNextLevel)
	assert.Equal(t, 5, lvl.RequiredForNextLevel) // 50 points / 10 per challenge
	assert.False(t, lvl.MaxLevel)
}

func TestProgressToNextLevel(t *testing.T) {
	// score 25 is halfway from 0 to 50
	assert.Equal(t, 50, LevelForScore(25).ProgressToNextLevel)
	// score 150 is halfway from 100 to 200
	assert.Equal(t, 50, LevelForScore(150).ProgressToNextLevel)
	assert.Equal(t, 0, LevelForScore(100).ProgressToNextLevel)
}

func TestRequiredForNextLevelInvertsChallengeTerm(t *testing.T) {
	// at 45 points one more completed challenge (+10) crosses 50
	assert.Equal(t, 1, LevelForScore(45).RequiredForNextLevel)
	// at 120 points, 200 is 80 away: 8 challenges
	assert.Equal(t, 8, LevelForScore(120).RequiredForNextLevel)
}

func TestMaxLevelTerminalState(t *testing.T) {
	lvl := LevelForScore(412)
	assert.Equal(t, 5, lvl.Level)
	assert.True(t, lvl.MaxLevel)
	assert.Equal(t, 100, lvl.ProgressToNextLevel)
	assert.Equal(t, 0, lvl.RequiredForNextLevel)
}

func TestBonusMultipliersStrictlyIncrease(t *testing.T) {
	prev := 0.0
	for _, score := range []float64{0, 50, 100, 200, 400} {
		lvl := LevelForScore(score)
		assert.Greater(t, lvl.BonusMultiplier, prev)
		prev = lvl.BonusMultiplier
	}
}
