package handlers

import (
	"net/http"

	rank "fitQuestAPI/internal/leaderboard"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/leaderboard"
	"fitQuestAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	userService        *services.UserService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, userService *services.UserService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		userService:        userService,
	}
}

func (h *LeaderboardHandler) board(w http.ResponseWriter, r *http.Request, period leaderboard.Period) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	category := leaderboard.CategoryPoints
	if period != leaderboard.PeriodOverall {
		c, err := rank.ParseCategory(r.URL.Query().Get("category"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		category = c
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	board, err := h.leaderboardService.Board(ctx, period, category, limit)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load leaderboard")
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetOverall(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, leaderboard.PeriodOverall)
}

func (h *LeaderboardHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, leaderboard.PeriodWeekly)
}

func (h *LeaderboardHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, leaderboard.PeriodMonthly)
}

func (h *LeaderboardHandler) GetMyRank(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	period, err := rank.ParsePeriod(r.URL.Query().Get("type"))
	if err != nil {
		respondWithServiceError(w, &activity.ValidationError{Field: "type", Message: "must be overall, weekly or monthly"}, "")
		return
	}
	category, err := rank.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.leaderboardService.UserRank(ctx, u.ID, period, category)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load rank")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
