package user

import (
	"saveQuestAPI/internal/scoring"
	"saveQuestAPI/internal/stats"
)

type CreateUserRequest struct {
	ClerkID   string `json:"clerkId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=30"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type UpdateProfileRequest struct {
	Username  string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// ProfileResponse is the combined payload for the profile screen.
type ProfileResponse struct {
	User  *User                     `json:"user"`
	Stats *stats.UserChallengeStats `json:"stats"`
	Level *scoring.Level            `json:"level"`
}
