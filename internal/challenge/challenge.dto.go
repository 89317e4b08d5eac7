package challenge

import "time"

type CreateChallengeRequest struct {
	Type         string `json:"type" validate:"required,oneof=daily weekly monthly"`
	Difficulty   string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	DurationDays int    `json:"durationDays" validate:"required,gt=0"`
	// TargetAmount is an optional hint; the nearest catalog entry wins.
	TargetAmount int    `json:"targetAmount,omitempty" validate:"omitempty,gt=0"`
	Category     string `json:"category,omitempty"`
	Pending      bool   `json:"pending,omitempty"`
}

type AddContributionRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
	// Date defaults to today when omitted.
	Date *time.Time `json:"date,omitempty"`
}

type ContributionResult struct {
	Challenge          *Challenge   `json:"challenge"`
	Contribution       *Contribution `json:"contribution"`
	NewMilestones      []Milestone  `json:"new_milestones,omitempty"`
	CompletedChallenge bool         `json:"completed_challenge"`
}
