package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saveQuestAPI/internal/challenge"
	"saveQuestAPI/internal/generator"
	"saveQuestAPI/internal/progress"
	"saveQuestAPI/utils"
)

type ChallengeService struct {
	db        *pgxpool.Pool
	generator *generator.Generator
	notifier  *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, gen *generator.Generator, notifier *NotificationService) *ChallengeService {
	return &ChallengeService{
		db:        db,
		generator: gen,
		notifier:  notifier,
	}
}

const challengeColumns = `
	id, user_id, type, name, description, category, difficulty,
	duration_days, target_amount, current_amount, start_date, end_date,
	progress, milestones, streak_count, last_period_date, status,
	completed_at, created_at, updated_at
`

func (s *ChallengeService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	typ, ok := challenge.ParseType(req.Type)
	if !ok {
		return nil, fmt.Errorf("unknown challenge type %q: %w", req.Type, challenge.ErrInvalidTemplate)
	}

	opts := generator.Options{
		DurationDays:     req.DurationDays,
		TargetAmountHint: req.TargetAmount,
		Category:         req.Category,
		Pending:          req.Pending,
	}
	if req.Difficulty != "" {
		difficulty, ok := challenge.ParseDifficulty(req.Difficulty)
		if !ok {
			return nil, fmt.Errorf("unknown difficulty %q: %w", req.Difficulty, challenge.ErrInvalidTemplate)
		}
		opts.Difficulty = difficulty
	}

	ch, err := s.generator.Generate(typ, opts)
	if err != nil {
		return nil, err
	}
	ch.UserID = userID

	milestonesJSON, err := json.Marshal(ch.Milestones)
	if err != nil {
		return nil, fmt.Errorf("failed to encode milestones: %w", err)
	}

	query := `
	INSERT INTO challenges (
		id, user_id, type, name, description, category, difficulty,
		duration_days, target_amount, current_amount, start_date, end_date,
		progress, milestones, streak_count, last_period_date, status,
		completed_at, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = s.db.Exec(
		ctx, query,
		ch.ID, ch.UserID, ch.Type, ch.Name, ch.Description, ch.Category, ch.Difficulty,
		ch.DurationDays, ch.TargetAmount, ch.CurrentAmount, ch.StartDate, ch.EndDate,
		ch.Progress, milestonesJSON, ch.StreakCount, ch.LastPeriodDate, ch.Status,
		ch.CompletedAt, ch.CreatedAt, ch.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return ch, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.Challenge, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1 AND user_id = $2`

	ch, err := scanChallenge(s.db.QueryRow(ctx, query, challengeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge not found")
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

func (s *ChallengeService) GetUserChallenges(ctx context.Context, clerkID string, status string) ([]*challenge.Challenge, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	challenges := []*challenge.Challenge{}
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return challenges, nil
}

// AddContribution records a contribution against a challenge. The row
// is locked for the duration of the transaction so concurrent
// contributions to the same challenge are applied one at a time.
func (s *ChallengeService) AddContribution(ctx context.Context, clerkID string, challengeID uuid.UUID, req *challenge.AddContributionRequest) (*challenge.ContributionResult, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	contrib := challenge.Contribution{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		Amount:      req.Amount,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1 AND user_id = $2 FOR UPDATE`
	prev, err := scanChallenge(tx.QueryRow(ctx, query, challengeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge not found")
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	next, err := progress.ApplyContribution(*prev, contrib)
	if err != nil {
		return nil, err
	}

	milestonesJSON, err := json.Marshal(next.Milestones)
	if err != nil {
		return nil, fmt.Errorf("failed to encode milestones: %w", err)
	}

	updateQuery := `
	UPDATE challenges
	SET current_amount = $2, progress = $3, milestones = $4,
		streak_count = $5, last_period_date = $6, status = $7,
		completed_at = $8, updated_at = NOW()
	WHERE id = $1
	`
	_, err = tx.Exec(ctx, updateQuery,
		next.ID, next.CurrentAmount, next.Progress, milestonesJSON,
		next.StreakCount, next.LastPeriodDate, next.Status, next.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}

	insertQuery := `
	INSERT INTO contributions (id, challenge_id, user_id, amount, date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, insertQuery,
		contrib.ID, contrib.ChallengeID, userID, contrib.Amount, contrib.Date, contrib.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record contribution: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit contribution: %w", err)
	}

	newMilestones := progress.NewlyAchieved(*prev, next)
	completed := prev.Status != challenge.StatusCompleted && next.Status == challenge.StatusCompleted

	if s.notifier != nil {
		if len(newMilestones) > 0 && !completed {
			go utils.MilestoneReached(s.notifier, userID, &next, newMilestones)
		}
		if completed {
			go utils.ChallengeCompleted(s.notifier, userID, &next)
		}
	}

	return &challenge.ContributionResult{
		Challenge:          &next,
		Contribution:       &contrib,
		NewMilestones:      newMilestones,
		CompletedChallenge: completed,
	}, nil
}

func (s *ChallengeService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.Challenge, error) {
	return s.transition(ctx, clerkID, challengeID, progress.Join)
}

func (s *ChallengeService) AbandonChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.Challenge, error) {
	return s.transition(ctx, clerkID, challengeID, progress.Abandon)
}

func (s *ChallengeService) transition(ctx context.Context, clerkID string, challengeID uuid.UUID, apply func(challenge.Challenge) (challenge.Challenge, error)) (*challenge.Challenge, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1 AND user_id = $2 FOR UPDATE`
	prev, err := scanChallenge(tx.QueryRow(ctx, query, challengeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge not found")
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	next, err := apply(*prev)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE challenges SET status = $2, updated_at = NOW() WHERE id = $1`, next.ID, next.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update challenge status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}

	log.Printf("ChallengeService: challenge %s moved to %s", next.ID, next.Status)
	return &next, nil
}

func (s *ChallengeService) GetContributions(ctx context.Context, clerkID string, challengeID uuid.UUID) ([]*challenge.Contribution, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT c.id, c.challenge_id, c.amount, c.date, c.created_at
	FROM contributions c
	JOIN challenges ch ON ch.id = c.challenge_id
	WHERE c.challenge_id = $1 AND ch.user_id = $2
	ORDER BY c.date ASC, c.created_at ASC
	`

	rows, err := s.db.Query(ctx, query, challengeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributions: %w", err)
	}
	defer rows.Close()

	contributions := []*challenge.Contribution{}
	for rows.Next() {
		c := &challenge.Contribution{}
		if err := rows.Scan(&c.ID, &c.ChallengeID, &c.Amount, &c.Date, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return contributions, nil
}

type challengeRow interface {
	Scan(dest ...any) error
}

func scanChallenge(row challengeRow) (*challenge.Challenge, error) {
	ch := &challenge.Challenge{}
	var milestonesJSON []byte

	err := row.Scan(
		&ch.ID, &ch.UserID, &ch.Type, &ch.Name, &ch.Description, &ch.Category, &ch.Difficulty,
		&ch.DurationDays, &ch.TargetAmount, &ch.CurrentAmount, &ch.StartDate, &ch.EndDate,
		&ch.Progress, &milestonesJSON, &ch.StreakCount, &ch.LastPeriodDate, &ch.Status,
		&ch.CompletedAt, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(milestonesJSON, &ch.Milestones); err != nil {
		return nil, fmt.Errorf("failed to decode milestones: %w", err)
	}

	return ch, nil
}
