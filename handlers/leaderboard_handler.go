package handlers

import (
	"context"
	"net/http"
	"time"

	"saveQuestAPI/internal/leaderboard"
	"saveQuestAPI/middleware"
	"saveQuestAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	period, ok := leaderboard.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "period must be weekly, monthly or all_time")
		return
	}

	board, err := h.leaderboardService.GetLeaderboard(ctx, clerkID, period)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
