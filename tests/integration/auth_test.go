package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saveQuestAPI/handlers"
	"saveQuestAPI/internal/user"
	"saveQuestAPI/middleware"
	"saveQuestAPI/services"
	"saveQuestAPI/tests/helpers"
)

func newUserHandler(pool *pgxpool.Pool) (*handlers.UserHandler, *services.UserService) {
	userService := services.NewUserService(pool)
	leaderboardService := services.NewLeaderboardService(pool)
	achievementService := services.NewAchievementService(pool, leaderboardService, nil)
	return handlers.NewUserHandler(userService, achievementService), userService
}

func TestGetProfile_Authenticated(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userHandler, userService := newUserHandler(pool)

	// Create a test user
	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	createReq := &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testauth@example.com",
		Username:  "testauth",
		FirstName: "Test",
		LastName:  "Auth",
		ImageURL:  "https://example.com/image.jpg",
	}

	createdUser, err := userService.CreateUser(ctx, createReq)
	require.NoError(t, err)

	// Create request with auth
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)

	// Add clerk ID to context (simulating successful auth middleware)
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()

	// Execute
	userHandler.GetProfile(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.ProfileResponse
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	require.NotNil(t, response.User)

	assert.Equal(t, createdUser.ID, response.User.ID)
	assert.Equal(t, clerkID, response.User.ClerkID)
	assert.Equal(t, "testauth@example.com", response.User.Email)
	assert.Equal(t, "testauth", response.User.Username)

	// A brand new user starts at zero
	require.NotNil(t, response.Stats)
	assert.Zero(t, response.Stats.TotalPoints)
	require.NotNil(t, response.Level)
	assert.Equal(t, "Penny Pincher", response.Level.Name)
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	// No auth context means the handler bails before touching the database
	userHandler, _ := newUserHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rr := httptest.NewRecorder()

	// Execute
	userHandler.GetProfile(rr, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response["error"], "not authenticated")
}

func TestUpdateProfile_Authenticated(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userHandler, userService := newUserHandler(pool)

	// Create a test user
	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testupdate@example.com",
		Username:  "testupdate",
		FirstName: "Test",
		LastName:  "Update",
	})
	require.NoError(t, err)

	// Create update request
	updateData := `{"firstName": "Updated", "lastName": "Name", "username": "newusername"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", strings.NewReader(updateData))
	req.Header.Set("Content-Type", "application/json")

	// Add auth context
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()

	// Execute
	userHandler.UpdateProfile(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "Updated", response.FirstName)
	assert.Equal(t, "Name", response.LastName)
	assert.Equal(t, "newusername", response.Username)
}

func TestDeleteAccount_Authenticated(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userHandler, userService := newUserHandler(pool)

	// Create a test user
	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testdelete@example.com",
		Username:  "testdelete",
		FirstName: "Test",
		LastName:  "Delete",
	})
	require.NoError(t, err)

	// Create delete request
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)

	// Add auth context
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()

	// Execute
	userHandler.DeleteAccount(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)

	// Verify deletion
	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "User should be deleted")
}
