package challenge

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDaily   Type = "daily"
	TypeWeekly  Type = "weekly"
	TypeMonthly Type = "monthly"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

var (
	ErrInvalidTemplate     = errors.New("invalid challenge template")
	ErrInvalidDuration     = errors.New("invalid challenge duration")
	ErrInvalidContribution = errors.New("invalid contribution")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInconsistentState   = errors.New("inconsistent challenge state")
)

// Template is an immutable catalog entry. BaseAmount is in whole
// currency units.
type Template struct {
	Type        Type   `json:"type"`
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseAmount  int    `json:"base_amount"`
}

type Milestone struct {
	Name     string `json:"name"`
	Amount   int    `json:"amount"`
	Achieved bool   `json:"achieved"`
}

type Challenge struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	Type          Type        `json:"type" db:"type"`
	Name          string      `json:"name" db:"name"`
	Description   string      `json:"description" db:"description"`
	Category      string      `json:"category" db:"category"`
	Difficulty    Difficulty  `json:"difficulty" db:"difficulty"`
	DurationDays  int         `json:"duration_days" db:"duration_days"`
	TargetAmount  int         `json:"target_amount" db:"target_amount"`
	CurrentAmount int         `json:"current_amount" db:"current_amount"`
	StartDate     time.Time   `json:"start_date" db:"start_date"`
	EndDate       time.Time   `json:"end_date" db:"end_date"`
	Progress      int         `json:"progress" db:"progress"`
	Milestones    []Milestone `json:"milestones" db:"milestones"`
	StreakCount   int         `json:"streak_count" db:"streak_count"`
	// LastPeriodDate anchors streak continuity: the date of the most
	// recent contribution that counted toward a qualifying period.
	LastPeriodDate *time.Time `json:"last_period_date,omitempty" db:"last_period_date"`
	Status         Status     `json:"status" db:"status"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

type Contribution struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	Amount      int       `json:"amount" db:"amount"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Clone returns a deep copy so functional updates never alias the
// caller's milestone slice.
func (c Challenge) Clone() Challenge {
	next := c
	next.Milestones = make([]Milestone, len(c.Milestones))
	copy(next.Milestones, c.Milestones)
	if c.LastPeriodDate != nil {
		d := *c.LastPeriodDate
		next.LastPeriodDate = &d
	}
	if c.CompletedAt != nil {
		d := *c.CompletedAt
		next.CompletedAt = &d
	}
	return next
}

// Validate runs the defensive invariant checks that should never fail
// on well-formed data.
func (c Challenge) Validate() error {
	if c.CurrentAmount < 0 {
		return ErrInconsistentState
	}
	if c.TargetAmount <= 0 {
		return ErrInconsistentState
	}
	for i := 1; i < len(c.Milestones); i++ {
		if c.Milestones[i].Amount <= c.Milestones[i-1].Amount {
			return ErrInconsistentState
		}
	}
	return nil
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeDaily, TypeWeekly, TypeMonthly:
		return Type(s), true
	}
	return "", false
}

func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return "", false
}
