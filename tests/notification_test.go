package tests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saveQuestAPI/internal/notification"
	"saveQuestAPI/internal/user"
	"saveQuestAPI/services"
	"saveQuestAPI/tests/helpers"
)

func TestNotificationFlow(t *testing.T) {
	db := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, db)

	userService := services.NewUserService(db)
	svc := services.NewNotificationService(db)
	defer svc.Stop()

	ctx := context.Background()

	clerkID := "user_test_notif_" + time.Now().Format("20060102150405")
	created, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testnotif@example.com",
		Username: "testnotif",
	})
	require.NoError(t, err)

	userID, err := uuid.Parse(created.ID)
	require.NoError(t, err)

	// Create a milestone notification and check the rendered message
	req := &notification.CreateNotificationRequest{
		UserID:   userID,
		Type:     notification.TypeMilestoneReached,
		Priority: notification.PriorityHigh,
		Data: map[string]any{
			"challenge_name": "Coffee Budget Cut",
			"milestone":      "Halfway There",
		},
	}

	notif, err := svc.CreateNotification(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, notif)
	assert.Contains(t, notif.Title, "Halfway There")
	assert.Contains(t, notif.Body, "Coffee Budget Cut")
	assert.Equal(t, notification.PriorityHigh, notif.Priority)

	// The new notification shows up unread
	count, err := svc.GetUnreadCount(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	list, err := svc.GetNotifications(ctx, clerkID, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, notif.ID, list.Notifications[0].ID)
	assert.Equal(t, 1, list.UnreadCount)

	// Mark as read
	require.NoError(t, svc.MarkAsRead(ctx, notif.ID, clerkID))

	count, err = svc.GetUnreadCount(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Disabling a type silently drops future notifications of it
	_, err = svc.UpdatePreferences(ctx, clerkID, &notification.UpdatePreferencesRequest{
		EnabledTypes: map[string]bool{string(notification.TypeLeaderboardMove): false},
	})
	require.NoError(t, err)

	dropped, err := svc.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeLeaderboardMove,
		Data:   map[string]any{"direction": "up", "rank": 3},
	})
	require.NoError(t, err)
	assert.Nil(t, dropped, "Disabled type should be skipped")

	count, err = svc.GetUnreadCount(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Cleanup
	require.NoError(t, svc.DeleteNotification(ctx, notif.ID, clerkID))
}

func TestRegisterDevice(t *testing.T) {
	db := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, db)

	userService := services.NewUserService(db)
	svc := services.NewNotificationService(db)
	defer svc.Stop()

	ctx := context.Background()

	clerkID := "user_test_device_" + time.Now().Format("20060102150405")
	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testdevice@example.com",
		Username: "testdevice",
	})
	require.NoError(t, err)

	err = svc.RegisterDevice(ctx, clerkID, notification.RegisterDeviceRequest{
		Token:    "fcm-token-abc123",
		Platform: "android",
	})
	require.NoError(t, err)

	// Registering the same token again is a no-op
	err = svc.RegisterDevice(ctx, clerkID, notification.RegisterDeviceRequest{
		Token:    "fcm-token-abc123",
		Platform: "android",
	})
	require.NoError(t, err)

	prefs, err := svc.GetPreferences(ctx, clerkID)
	require.NoError(t, err)
	require.Len(t, prefs.DeviceTokens, 1)
	assert.Equal(t, "fcm-token-abc123", prefs.DeviceTokens[0].Token)
	assert.Equal(t, "android", prefs.DeviceTokens[0].Platform)
}
