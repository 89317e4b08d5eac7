package scoring

import "math"

// Level is the derived achievement tier for a user. It is computed on
// demand and never stored.
type Level struct {
	Level                int     `json:"level"`
	Name                 string  `json:"name"`
	Icon                 string  `json:"icon"`
	BonusMultiplier      float64 `json:"bonus_multiplier"`
	ProgressToNextLevel  int     `json:"progress_to_next_level"`
	RequiredForNextLevel int     `json:"required_for_next_level"`
	MaxLevel             bool    `json:"max_level"`
	TotalScore           float64 `json:"total_score"`
}

// tier thresholds and bonuses are user-facing game-balance constants.
// Do not retune them without a product decision; clients and existing
// leaderboards depend on the exact values.
type tier struct {
	level    int
	name     string
	icon     string
	bonus    float64
	minScore float64
}

var tiers = []tier{
	{1, "Penny Pincher", "🪙", 1.0, 0},
	{2, "Coupon Clipper", "✂️", 1.1, 50},
	{3, "Budget Boss", "💼", 1.25, 100},
	{4, "Wealth Builder", "🏗️", 1.5, 200},
	{5, "Savings Legend", "👑", 2.0, 400},
}

const pointsPerChallenge = 10

// Score computes the achievement point total. The formula is exact:
// completed*10 + totalSaved/100 + streakDays*5.
func Score(completedChallenges int, totalSaved int, streakDays int) float64 {
	return float64(completedChallenges)*pointsPerChallenge +
		float64(totalSaved)/100 +
		float64(streakDays)*5
}

// Evaluate maps a user's aggregates onto an achievement level.
// Deterministic: no randomness, no clock.
func Evaluate(completedChallenges int, totalSaved int, streakDays int) Level {
	score := Score(completedChallenges, totalSaved, streakDays)
	return LevelForScore(score)
}

// LevelForScore resolves a raw score against the tier table. Tier
// lower bounds are half-open: a score of exactly 50 is level 2.
func LevelForScore(score float64) Level {
	idx := 0
	for i, t := range tiers {
		if score >= t.minScore {
			idx = i
		}
	}
	t := tiers[idx]

	lvl := Level{
		Level:           t.level,
		Name:            t.name,
		Icon:            t.icon,
		BonusMultiplier: t.bonus,
		TotalScore:      score,
	}

	if idx == len(tiers)-1 {
		lvl.MaxLevel = true
		lvl.ProgressToNextLevel = 100
		return lvl
	}

	next := tiers[idx+1]
	span := next.minScore - t.minScore
	pct := int(math.Round((score - t.minScore) / span * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	lvl.ProgressToNextLevel = pct

	// How many more completed challenges alone would cross the next
	// tier, holding savings and streak constant.
	lvl.RequiredForNextLevel = int(math.Ceil((next.minScore - score) / pointsPerChallenge))

	return lvl
}
