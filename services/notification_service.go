package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saveQuestAPI/internal/notification"
)

// messageTemplate renders one notification type. Placeholders use the
// {{key}} form and resolve against the request's data map.
type messageTemplate struct {
	title    string
	body     string
	priority notification.NotificationPriority
}

var messageTemplates = map[notification.NotificationType]messageTemplate{
	notification.TypeMilestoneReached: {
		title:    "{{milestone}}!",
		body:     "You hit {{progress}}% of {{challenge_name}}. Keep it going!",
		priority: notification.PriorityNormal,
	},
	notification.TypeChallengeCompleted: {
		title:    "Challenge complete 🎉",
		body:     "You finished {{challenge_name}} and saved ${{saved}}.",
		priority: notification.PriorityHigh,
	},
	notification.TypeLevelUp: {
		title:    "Level up! You're now a {{level_name}} {{icon}}",
		body:     "Your savings bonus is now {{bonus}}.",
		priority: notification.PriorityHigh,
	},
	notification.TypeStreakRisk: {
		title:    "Don't break your streak",
		body:     "{{challenge_name}} is waiting for today's contribution.",
		priority: notification.PriorityNormal,
	},
	notification.TypeLeaderboardMove: {
		title:    "Leaderboard update",
		body:     "You moved to rank {{rank}} on the {{period}} leaderboard.",
		priority: notification.PriorityLow,
	},
}

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{
		db: db,
	}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

// SetPushProvider injects the push transport; main.go wires FCM here.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

// Stop drains the dispatcher. Called on shutdown.
func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

func (s *NotificationService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found for clerk_id %s: %w", clerkID, err)
	}
	return userID, nil
}

func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	template, ok := messageTemplates[req.Type]
	if !ok {
		return nil, fmt.Errorf("unknown notification type: %s", req.Type)
	}

	title := renderTemplate(template.title, req.Data)
	body := renderTemplate(template.body, req.Data)

	priority := req.Priority
	if priority == "" {
		priority = template.priority
	}

	prefs, err := s.GetPreferencesByUserID(ctx, req.UserID)
	if err != nil {
		prefs, err = s.createDefaultPreferences(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to create preferences: %w", err)
		}
	}

	if enabled, ok := prefs.EnabledTypes[string(req.Type)]; ok && !enabled {
		return nil, nil // user disabled this type, silently skip
	}

	dataJSON, _ := json.Marshal(req.Data)

	query := `
		INSERT INTO notifications (user_id, type, priority, status, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, user_id, type, priority, status, title, body, data, sent_at, read_at, created_at
	`

	notif := &notification.Notification{}
	var dataStr string

	err = s.db.QueryRow(
		ctx, query,
		req.UserID, req.Type, priority, notification.StatusPending,
		title, body, dataJSON,
	).Scan(
		&notif.ID, &notif.UserID, &notif.Type, &notif.Priority, &notif.Status,
		&notif.Title, &notif.Body, &dataStr, &notif.SentAt, &notif.ReadAt, &notif.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	json.Unmarshal([]byte(dataStr), &notif.Data)

	if prefs.PushEnabled {
		go s.dispatcher.DispatchNotification(context.Background(), notif, prefs)
	}

	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int, unreadOnly bool) (*notification.ListResponse, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	whereClause := "WHERE user_id = $1"
	if unreadOnly {
		whereClause += " AND read_at IS NULL"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, type, priority, status, title, body, data, sent_at, read_at, created_at
		FROM notifications
		%s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, whereClause)

	rows, err := s.db.Query(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		notif := &notification.Notification{}
		var dataStr string
		err := rows.Scan(
			&notif.ID, &notif.UserID, &notif.Type, &notif.Priority, &notif.Status,
			&notif.Title, &notif.Body, &dataStr, &notif.SentAt, &notif.ReadAt, &notif.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		json.Unmarshal([]byte(dataStr), &notif.Data)
		notifications = append(notifications, notif)
	}

	var unreadCount, totalCount int
	s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL", userID).Scan(&unreadCount)
	s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1", userID).Scan(&totalCount)

	return &notification.ListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
		TotalCount:    totalCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	var unreadCount int
	query := "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL"
	err = s.db.QueryRow(ctx, query, userID).Scan(&unreadCount)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return unreadCount, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
		UPDATE notifications
		SET read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL
	`
	result, err := s.db.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark as read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found or already read")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`
	_, err = s.db.Exec(ctx, query, userID)
	return err
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := "DELETE FROM notifications WHERE id = $1 AND user_id = $2"
	result, err := s.db.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) GetPreferences(ctx context.Context, clerkID string) (*notification.Preferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return s.GetPreferencesByUserID(ctx, userID)
}

func (s *NotificationService) GetPreferencesByUserID(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	query := `
		SELECT user_id, push_enabled, in_app_enabled, enabled_types, device_tokens, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`

	prefs := &notification.Preferences{}
	var enabledTypesStr, deviceTokensStr string

	err := s.db.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID, &prefs.PushEnabled, &prefs.InAppEnabled,
		&enabledTypesStr, &deviceTokensStr, &prefs.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("preferences not found")
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	json.Unmarshal([]byte(enabledTypesStr), &prefs.EnabledTypes)
	json.Unmarshal([]byte(deviceTokensStr), &prefs.DeviceTokens)
	return prefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, clerkID string, req *notification.UpdatePreferencesRequest) (*notification.Preferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	updates := []string{}
	args := []interface{}{userID}
	argCount := 2

	if req.PushEnabled != nil {
		updates = append(updates, fmt.Sprintf("push_enabled = $%d", argCount))
		args = append(args, *req.PushEnabled)
		argCount++
	}
	if req.InAppEnabled != nil {
		updates = append(updates, fmt.Sprintf("in_app_enabled = $%d", argCount))
		args = append(args, *req.InAppEnabled)
		argCount++
	}
	if req.EnabledTypes != nil {
		typesJSON, _ := json.Marshal(req.EnabledTypes)
		updates = append(updates, fmt.Sprintf("enabled_types = $%d", argCount))
		args = append(args, typesJSON)
		argCount++
	}

	if len(updates) == 0 {
		return s.GetPreferencesByUserID(ctx, userID)
	}

	query := fmt.Sprintf(`
		UPDATE notification_preferences
		SET %s, updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id
	`, strings.Join(updates, ", "))

	var id uuid.UUID
	err = s.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return s.GetPreferencesByUserID(ctx, userID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req notification.RegisterDeviceRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	prefs, err := s.GetPreferencesByUserID(ctx, userID)
	if err != nil {
		prefs, err = s.createDefaultPreferences(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to create preferences: %w", err)
		}
	}

	tokenExists := false
	for _, token := range prefs.DeviceTokens {
		if token.Token == req.Token {
			tokenExists = true
			break
		}
	}

	if !tokenExists {
		prefs.DeviceTokens = append(prefs.DeviceTokens, notification.DeviceToken{
			Token:    req.Token,
			Platform: req.Platform,
		})
	}

	tokensJSON, _ := json.Marshal(prefs.DeviceTokens)
	query := `UPDATE notification_preferences SET device_tokens = $2, updated_at = NOW() WHERE user_id = $1`

	_, err = s.db.Exec(ctx, query, userID, tokensJSON)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	return nil
}

func (s *NotificationService) createDefaultPreferences(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	query := `INSERT INTO notification_preferences (user_id) VALUES ($1) RETURNING user_id`
	var id uuid.UUID
	err := s.db.QueryRow(ctx, query, userID).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.GetPreferencesByUserID(ctx, userID)
}

func (s *NotificationService) markDispatched(ctx context.Context, notificationID uuid.UUID, status notification.NotificationStatus) {
	query := `UPDATE notifications SET status = $1, sent_at = NOW() WHERE id = $2`
	if status == notification.StatusFailed {
		query = `UPDATE notifications SET status = $1 WHERE id = $2`
	}
	s.db.Exec(ctx, query, status, notificationID)
}

func renderTemplate(template string, data map[string]any) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, fmt.Sprintf("%v", value))
	}
	return result
}
