package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"saveQuestAPI/internal/leaderboard"
	"saveQuestAPI/internal/scoring"
	"saveQuestAPI/internal/stats"
	"saveQuestAPI/utils"
)

type AchievementService struct {
	db           *pgxpool.Pool
	leaderboards *LeaderboardService
	notifier     utils.NotificationCreator
}

func NewAchievementService(db *pgxpool.Pool, leaderboards *LeaderboardService, notifier utils.NotificationCreator) *AchievementService {
	return &AchievementService{db: db, leaderboards: leaderboards, notifier: notifier}
}

// userAggregates are the lifetime totals the scoring formula consumes.
type userAggregates struct {
	userID     uuid.UUID
	totalSaved int
	completed  int
	active     int
	streakDays int
}

func (s *AchievementService) aggregates(ctx context.Context, clerkID string) (*userAggregates, error) {
	agg := &userAggregates{}
	query := `
	SELECT
		u.id,
		COALESCE((
			SELECT SUM(ch.current_amount)
			FROM challenges ch
			WHERE ch.user_id = u.id AND ch.status != 'abandoned'
		), 0) AS total_saved,
		COALESCE((
			SELECT COUNT(*)
			FROM challenges ch
			WHERE ch.user_id = u.id AND ch.status = 'completed'
		), 0) AS completed,
		COALESCE((
			SELECT COUNT(*)
			FROM challenges ch
			WHERE ch.user_id = u.id AND ch.status = 'active'
		), 0) AS active,
		COALESCE((
			SELECT MAX(ch.streak_count)
			FROM challenges ch
			WHERE ch.user_id = u.id AND ch.status = 'active'
		), 0) AS streak_days
	FROM users u
	WHERE u.clerk_id = $1`

	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&agg.userID, &agg.totalSaved, &agg.completed, &agg.active, &agg.streakDays,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user aggregates: %w", err)
	}
	return agg, nil
}

// GetUserChallengeStats returns the lifetime savings totals plus the
// user's all-time rank across the whole cohort.
func (s *AchievementService) GetUserChallengeStats(ctx context.Context, clerkID string) (*stats.UserChallengeStats, error) {
	agg, err := s.aggregates(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rank, err := s.leaderboards.GetUserRank(ctx, agg.userID, leaderboard.PeriodAllTime)
	if err != nil {
		return nil, err
	}

	return &stats.UserChallengeStats{
		TotalSaved:       agg.totalSaved,
		TotalCompleted:   agg.completed,
		ActiveChallenges: agg.active,
		StreakDays:       agg.streakDays,
		TotalPoints:      scoring.Score(agg.completed, agg.totalSaved, agg.streakDays),
		Rank:             rank,
	}, nil
}

// GetAchievementLevel evaluates the user's current level from lifetime
// aggregates.
func (s *AchievementService) GetAchievementLevel(ctx context.Context, clerkID string) (*scoring.Level, error) {
	agg, err := s.aggregates(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	level := scoring.Evaluate(agg.completed, agg.totalSaved, agg.streakDays)
	return &level, nil
}

// CheckLevelUp re-evaluates the user's level against the stored one
// and fires a notification when it rose. Called after contributions
// land; failures are logged, never surfaced to the caller.
func (s *AchievementService) CheckLevelUp(ctx context.Context, clerkID string) {
	agg, err := s.aggregates(ctx, clerkID)
	if err != nil {
		log.Printf("CheckLevelUp: failed to load aggregates for %s: %v", clerkID, err)
		return
	}

	var storedLevel int
	err = s.db.QueryRow(ctx, `SELECT achievement_level FROM users WHERE id = $1`, agg.userID).Scan(&storedLevel)
	if err != nil {
		log.Printf("CheckLevelUp: failed to load stored level for %s: %v", clerkID, err)
		return
	}

	level := scoring.Evaluate(agg.completed, agg.totalSaved, agg.streakDays)
	if level.Level <= storedLevel {
		return
	}

	_, err = s.db.Exec(ctx, `UPDATE users SET achievement_level = $1, updated_at = NOW() WHERE id = $2`, level.Level, agg.userID)
	if err != nil {
		log.Printf("CheckLevelUp: failed to persist level for %s: %v", clerkID, err)
		return
	}

	if s.notifier != nil {
		utils.LevelUp(s.notifier, agg.userID, level)
	}
}
