package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"saveQuestAPI/internal/leaderboard"
	"saveQuestAPI/internal/scoring"
)

// leaderboardLimit caps the returned slice; the requesting user's
// absolute position is always computed over the full cohort.
const leaderboardLimit = 50

type LeaderboardService struct {
	db *pgxpool.Pool
}

func NewLeaderboardService(db *pgxpool.Pool) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// windowClause returns the SQL date filters for contribution sums and
// completion counts in the requested period.
func windowClause(period leaderboard.Period) (contribFilter, completionFilter string) {
	switch period {
	case leaderboard.PeriodWeekly:
		return "AND c.date >= DATE_TRUNC('week', CURRENT_DATE)",
			"AND ch.completed_at >= DATE_TRUNC('week', CURRENT_DATE)"
	case leaderboard.PeriodMonthly:
		return "AND c.date >= DATE_TRUNC('month', CURRENT_DATE)",
			"AND ch.completed_at >= DATE_TRUNC('month', CURRENT_DATE)"
	default:
		return "", ""
	}
}

// CohortEntries loads the windowed per-user aggregates and scores them
// with the engine formula. Ordering is left to the ranker.
func (s *LeaderboardService) CohortEntries(ctx context.Context, period leaderboard.Period) ([]*leaderboard.Entry, error) {
	contribFilter, completionFilter := windowClause(period)

	query := fmt.Sprintf(`
	SELECT
		u.id AS user_id,
		u.username,
		u.image_url,
		COALESCE((
			SELECT SUM(c.amount)
			FROM contributions c
			JOIN challenges ch ON ch.id = c.challenge_id
			WHERE c.user_id = u.id AND ch.status != 'abandoned' %s
		), 0) AS total_saved,
		COALESCE((
			SELECT COUNT(*)
			FROM challenges ch
			WHERE ch.user_id = u.id AND ch.status = 'completed' %s
		), 0) AS completed,
		COALESCE((
			SELECT MAX(ch.streak_count)
			FROM challenges ch
			WHERE ch.user_id = u.id AND ch.status = 'active'
		), 0) AS streak_days
	FROM users u
	`, contribFilter, completionFilter)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard cohort: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	for rows.Next() {
		entry := &leaderboard.Entry{}
		var totalSaved, completed, streakDays int
		err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &totalSaved, &completed, &streakDays)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cohort row: %w", err)
		}

		entry.TotalSaved = totalSaved
		entry.Points = scoring.Score(completed, totalSaved, streakDays)
		entry.AchievementLevel = scoring.LevelForScore(entry.Points).Level
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// GetLeaderboard ranks the full cohort for a period and returns the
// top slice plus the requesting user's absolute position, even when
// that user falls outside the slice.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, clerkID string, period leaderboard.Period) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	cohort, err := s.CohortEntries(ctx, period)
	if err != nil {
		return nil, err
	}

	ranked := leaderboard.Rank(cohort)

	var userPosition *leaderboard.Entry
	for _, e := range ranked {
		if e.UserID == userID {
			userPosition = e
			break
		}
	}

	top := ranked
	if len(top) > leaderboardLimit {
		top = top[:leaderboardLimit]
	}

	return &leaderboard.Leaderboard{
		Period:       period,
		Entries:      top,
		UserPosition: userPosition,
		TotalUsers:   len(ranked),
	}, nil
}

// GetUserRank reports one user's absolute rank for a period.
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID uuid.UUID, period leaderboard.Period) (int, error) {
	cohort, err := s.CohortEntries(ctx, period)
	if err != nil {
		return 0, err
	}

	rank, ok := leaderboard.RankOf(cohort, userID)
	if !ok {
		return 0, fmt.Errorf("user %s not in leaderboard cohort", userID)
	}
	return rank, nil
}
