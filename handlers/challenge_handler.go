package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"saveQuestAPI/internal/challenge"
	"saveQuestAPI/middleware"
	"saveQuestAPI/services"
)

type ChallengeHandler struct {
	challengeService   *services.ChallengeService
	achievementService *services.AchievementService
	validate           *validator.Validate
}

func NewChallengeHandler(challengeService *services.ChallengeService, achievementService *services.AchievementService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService:   challengeService,
		achievementService: achievementService,
		validate:           validator.New(),
	}
}

// statusFromChallengeError maps engine sentinels onto HTTP codes so
// callers can tell bad input apart from state conflicts.
func statusFromChallengeError(err error) (int, string) {
	switch {
	case errors.Is(err, challenge.ErrInvalidTemplate),
		errors.Is(err, challenge.ErrInvalidDuration),
		errors.Is(err, challenge.ErrInvalidContribution):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, challenge.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, challenge.ErrInconsistentState):
		return http.StatusInternalServerError, "challenge state is corrupt"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.challengeService.CreateChallenge(ctx, clerkID, &req)
	if err != nil {
		log.Printf("CreateChallenge Handler: Service error: %v", err)
		code, msg := statusFromChallengeError(err)
		respondWithError(w, code, msg)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ChallengeHandler) GetChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	status := r.URL.Query().Get("status")

	challenges, err := h.challengeService.GetUserChallenges(ctx, clerkID, status)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	ch, err := h.challengeService.GetChallenge(ctx, clerkID, challengeID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Challenge not found")
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) AddContribution(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	var req challenge.AddContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.challengeService.AddContribution(ctx, clerkID, challengeID, &req)
	if err != nil {
		log.Printf("AddContribution Handler: Service error: %v", err)
		code, msg := statusFromChallengeError(err)
		respondWithError(w, code, msg)
		return
	}

	// Completing a challenge can push the user over a level
	// threshold; the check runs off the request path.
	if result.CompletedChallenge && h.achievementService != nil {
		go h.achievementService.CheckLevelUp(context.Background(), clerkID)
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) GetContributions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	contributions, err := h.challengeService.GetContributions(ctx, clerkID, challengeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, contributions)
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.challengeService.JoinChallenge)
}

func (h *ChallengeHandler) AbandonChallenge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.challengeService.AbandonChallenge)
}

func (h *ChallengeHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, uuid.UUID) (*challenge.Challenge, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	ch, err := apply(ctx, clerkID, challengeID)
	if err != nil {
		log.Printf("Challenge transition Handler: Service error: %v", err)
		code, msg := statusFromChallengeError(err)
		respondWithError(w, code, msg)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}
