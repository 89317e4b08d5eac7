package stats

// SavedStat is a single windowed savings figure for the stats screens.
type SavedStat struct {
	Period     string `json:"period"` // "week", "month", "all_time"
	TotalSaved int    `json:"total_saved" db:"total_saved"`
	Completed  int    `json:"completed" db:"completed"`
}

// UserChallengeStats aggregates a user's challenge history. StreakDays
// is the maximum streak across the user's active challenges and feeds
// the scoring formula as-is.
type UserChallengeStats struct {
	TotalSaved       int     `json:"total_saved"`
	TotalCompleted   int     `json:"total_completed"`
	ActiveChallenges int     `json:"active_challenges"`
	StreakDays       int     `json:"streak_days"`
	TotalPoints      float64 `json:"total_points"`
	Rank             int     `json:"rank"`
}
