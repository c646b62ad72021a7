package handlers

import (
	"net/http"

	"fitQuestAPI/internal/types/challenge"
	"fitQuestAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
	userService      *services.UserService
}

func NewChallengeHandler(challengeService *services.ChallengeService, userService *services.UserService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		userService:      userService,
	}
}

func (h *ChallengeHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	active, err := h.challengeService.GetActive(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load challenges")
		return
	}
	respondWithJSON(w, http.StatusOK, active)
}

func (h *ChallengeHandler) CreateDefault(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	created, err := h.challengeService.GenerateDefaults(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create challenges")
		return
	}
	if created == nil {
		created = []*challenge.Challenge{}
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ChallengeHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	completed, err := h.challengeService.Check(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to check challenges")
		return
	}
	if completed == nil {
		completed = []*challenge.Challenge{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"completed": completed})
}
