package handlers

import (
	"net/http"

	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/services"
)

type GamificationHandler struct {
	engine      *services.GamificationService
	userService *services.UserService
}

func NewGamificationHandler(engine *services.GamificationService, userService *services.UserService) *GamificationHandler {
	return &GamificationHandler{
		engine:      engine,
		userService: userService,
	}
}

func (h *GamificationHandler) GetPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	points, err := h.engine.Points(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load points")
		return
	}
	respondWithJSON(w, http.StatusOK, points)
}

func (h *GamificationHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	earned, err := h.engine.EarnedBadges(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load badges")
		return
	}
	if earned == nil {
		earned = []*badge.Earned{}
	}
	respondWithJSON(w, http.StatusOK, earned)
}

func (h *GamificationHandler) GetAvailableBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	badges, err := h.engine.AvailableBadges(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load badges")
		return
	}
	respondWithJSON(w, http.StatusOK, badges)
}

func (h *GamificationHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	progress, err := h.engine.LevelProgress(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load level progress")
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

func (h *GamificationHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	entries, err := h.engine.Ledger(ctx, u.ID, limit)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load point history")
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}
