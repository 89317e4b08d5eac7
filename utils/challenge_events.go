package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"saveQuestAPI/internal/challenge"
	"saveQuestAPI/internal/notification"
	"saveQuestAPI/internal/scoring"
)

// NotificationCreator is the slice of the notification service these
// triggers need; the full service type stays out of this package.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// MilestoneReached fires one notification per milestone crossed by a
// single contribution. Runs in the background; failures are logged,
// never surfaced to the contributing request.
func MilestoneReached(notifier NotificationCreator, userID uuid.UUID, ch *challenge.Challenge, milestones []challenge.Milestone) {
	bgCtx := context.Background()

	for _, m := range milestones {
		req := &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.TypeMilestoneReached,
			Priority: notification.PriorityNormal,
			Data: map[string]any{
				"challenge_id":   ch.ID.String(),
				"challenge_name": ch.Name,
				"milestone":      m.Name,
				"amount":         m.Amount,
				"progress":       ch.Progress,
			},
		}

		if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
			log.Printf("MilestoneReached: failed to notify user %s: %v", userID, err)
		}
	}
}

// ChallengeCompleted announces a finished challenge.
func ChallengeCompleted(notifier NotificationCreator, userID uuid.UUID, ch *challenge.Challenge) {
	bgCtx := context.Background()

	req := &notification.CreateNotificationRequest{
		UserID:   userID,
		Type:     notification.TypeChallengeCompleted,
		Priority: notification.PriorityHigh,
		Data: map[string]any{
			"challenge_id":   ch.ID.String(),
			"challenge_name": ch.Name,
			"target_amount":  ch.TargetAmount,
			"saved":          ch.CurrentAmount,
		},
	}

	if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
		log.Printf("ChallengeCompleted: failed to notify user %s: %v", userID, err)
	}
}

// LevelUp announces a new achievement tier.
func LevelUp(notifier NotificationCreator, userID uuid.UUID, level scoring.Level) {
	bgCtx := context.Background()

	req := &notification.CreateNotificationRequest{
		UserID:   userID,
		Type:     notification.TypeLevelUp,
		Priority: notification.PriorityHigh,
		Data: map[string]any{
			"level":      level.Level,
			"level_name": level.Name,
			"icon":       level.Icon,
			"bonus":      fmt.Sprintf("%.0f%%", (level.BonusMultiplier-1)*100),
		},
	}

	if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
		log.Printf("LevelUp: failed to notify user %s: %v", userID, err)
	}
}
