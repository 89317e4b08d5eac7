package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saveQuestAPI/handlers"
	"saveQuestAPI/internal/catalog"
	"saveQuestAPI/internal/challenge"
	"saveQuestAPI/internal/generator"
	"saveQuestAPI/internal/leaderboard"
	"saveQuestAPI/internal/stats"
	"saveQuestAPI/middleware"
	"saveQuestAPI/services"
	"saveQuestAPI/tests/helpers"
)

// TestFullChallengeLifecycle walks a user from sign-up through
// completing a savings challenge and showing up on the leaderboard.
func TestFullChallengeLifecycle(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	leaderboardService := services.NewLeaderboardService(pool)
	achievementService := services.NewAchievementService(pool, leaderboardService, nil)
	challengeService := services.NewChallengeService(pool, generator.New(catalog.Default()), nil)

	webhookHandler := handlers.NewWebhookHandler(userService)
	challengeHandler := handlers.NewChallengeHandler(challengeService, achievementService)
	achievementHandler := handlers.NewAchievementHandler(achievementService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")

	// Step 1: User signs up via Clerk webhook
	t.Log("Step 1: User signs up")

	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr1 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr1, req1)
	require.Equal(t, http.StatusOK, rr1.Code, "Webhook should succeed")

	// Step 2: User creates a weekly challenge
	t.Log("Step 2: User creates a challenge")

	createBody := `{"type": "weekly", "difficulty": "easy", "durationDays": 14}`
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/challenges", strings.NewReader(createBody))
	req2.Header.Set("Content-Type", "application/json")
	req2 = withClerkID(req2, clerkID)
	rr2 := httptest.NewRecorder()

	challengeHandler.CreateChallenge(rr2, req2)
	require.Equal(t, http.StatusCreated, rr2.Code, rr2.Body.String())

	var created challenge.Challenge
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &created))
	assert.Equal(t, challenge.StatusActive, created.Status)
	assert.Greater(t, created.TargetAmount, 0)
	assert.Len(t, created.Milestones, 4)

	// Step 3: A partial contribution crosses early milestones
	t.Log("Step 3: User contributes half the target")

	half := created.TargetAmount / 2
	result := addContribution(t, challengeHandler, clerkID, created.ID.String(), half)
	assert.False(t, result.CompletedChallenge)
	assert.NotEmpty(t, result.NewMilestones, "Half the target should cross at least the 25% milestone")
	assert.Equal(t, half, result.Challenge.CurrentAmount)

	// Step 4: The remainder completes the challenge
	t.Log("Step 4: User contributes the rest")

	rest := created.TargetAmount - half
	result = addContribution(t, challengeHandler, clerkID, created.ID.String(), rest)
	assert.True(t, result.CompletedChallenge)
	assert.Equal(t, challenge.StatusCompleted, result.Challenge.Status)
	assert.Equal(t, created.TargetAmount, result.Challenge.CurrentAmount)

	// Step 5: Stats reflect the completed challenge
	t.Log("Step 5: Stats reflect the completion")

	req3 := httptest.NewRequest(http.MethodGet, "/api/v1/achievements/stats", nil)
	req3 = withClerkID(req3, clerkID)
	rr3 := httptest.NewRecorder()

	achievementHandler.GetUserChallengeStats(rr3, req3)
	require.Equal(t, http.StatusOK, rr3.Code)

	var userStats stats.UserChallengeStats
	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &userStats))
	assert.Equal(t, 1, userStats.TotalCompleted)
	assert.Equal(t, created.TargetAmount, userStats.TotalSaved)
	assert.Greater(t, userStats.TotalPoints, float64(0))
	assert.GreaterOrEqual(t, userStats.Rank, 1)

	// Step 6: User appears on the all-time leaderboard
	t.Log("Step 6: User is ranked on the leaderboard")

	req4 := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?period=all_time", nil)
	req4 = withClerkID(req4, clerkID)
	rr4 := httptest.NewRecorder()

	leaderboardHandler.GetLeaderboard(rr4, req4)
	require.Equal(t, http.StatusOK, rr4.Code)

	var board leaderboard.Leaderboard
	require.NoError(t, json.Unmarshal(rr4.Body.Bytes(), &board))
	assert.Equal(t, leaderboard.PeriodAllTime, board.Period)
	assert.NotEmpty(t, board.Entries)
	require.NotNil(t, board.UserPosition)
	assert.GreaterOrEqual(t, board.UserPosition.Rank, 1)
	assert.GreaterOrEqual(t, board.TotalUsers, 1)
}

// TestAbandonedChallengeRejectsContributions covers the terminal
// status edge: once abandoned, money can no longer be added.
func TestAbandonedChallengeRejectsContributions(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	leaderboardService := services.NewLeaderboardService(pool)
	achievementService := services.NewAchievementService(pool, leaderboardService, nil)
	challengeService := services.NewChallengeService(pool, generator.New(catalog.Default()), nil)
	challengeHandler := handlers.NewChallengeHandler(challengeService, achievementService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405.000")
	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload)))
	require.Equal(t, http.StatusOK, rr.Code)

	ctx := context.Background()
	created, err := challengeService.CreateChallenge(ctx, clerkID, &challenge.CreateChallengeRequest{
		Type:         "daily",
		DurationDays: 7,
	})
	require.NoError(t, err)

	// Abandon it
	reqAbandon := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/"+created.ID.String()+"/abandon", nil)
	reqAbandon = withClerkID(reqAbandon, clerkID)
	reqAbandon = mux.SetURLVars(reqAbandon, map[string]string{"id": created.ID.String()})
	rrAbandon := httptest.NewRecorder()

	challengeHandler.AbandonChallenge(rrAbandon, reqAbandon)
	require.Equal(t, http.StatusOK, rrAbandon.Code, rrAbandon.Body.String())

	// Contributions are now rejected
	body := `{"amount": 500}`
	reqContrib := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/"+created.ID.String()+"/contributions", strings.NewReader(body))
	reqContrib.Header.Set("Content-Type", "application/json")
	reqContrib = withClerkID(reqContrib, clerkID)
	reqContrib = mux.SetURLVars(reqContrib, map[string]string{"id": created.ID.String()})
	rrContrib := httptest.NewRecorder()

	challengeHandler.AddContribution(rrContrib, reqContrib)
	assert.Equal(t, http.StatusBadRequest, rrContrib.Code)
}

func withClerkID(r *http.Request, clerkID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ClerkIDKey, clerkID)
	return r.WithContext(ctx)
}

func addContribution(t *testing.T, h *handlers.ChallengeHandler, clerkID, challengeID string, amount int) *challenge.ContributionResult {
	t.Helper()

	body := fmt.Sprintf(`{"amount": %d}`, amount)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/"+challengeID+"/contributions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withClerkID(req, clerkID)
	req = mux.SetURLVars(req, map[string]string{"id": challengeID})

	rr := httptest.NewRecorder()
	h.AddContribution(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result challenge.ContributionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	return &result
}
