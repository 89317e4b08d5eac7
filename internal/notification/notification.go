package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeMilestoneReached   NotificationType = "milestone_reached"
	TypeChallengeCompleted NotificationType = "challenge_completed"
	TypeLevelUp            NotificationType = "level_up"
	TypeStreakRisk         NotificationType = "streak_risk"
	TypeLeaderboardMove    NotificationType = "leaderboard_move"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	UserID    uuid.UUID            `json:"user_id" db:"user_id"`
	Type      NotificationType     `json:"type" db:"type"`
	Priority  NotificationPriority `json:"priority" db:"priority"`
	Status    NotificationStatus   `json:"status" db:"status"`
	Title     string               `json:"title" db:"title"`
	Body      string               `json:"body" db:"body"`
	Data      map[string]any       `json:"data" db:"data"`
	SentAt    *time.Time           `json:"sent_at,omitempty" db:"sent_at"`
	ReadAt    *time.Time           `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type Preferences struct {
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	PushEnabled  bool            `json:"push_enabled" db:"push_enabled"`
	InAppEnabled bool            `json:"in_app_enabled" db:"in_app_enabled"`
	EnabledTypes map[string]bool `json:"enabled_types" db:"enabled_types"`
	DeviceTokens []DeviceToken   `json:"device_tokens" db:"device_tokens"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
