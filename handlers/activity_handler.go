package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
	userService     *services.UserService
}

func NewActivityHandler(activityService *services.ActivityService, userService *services.UserService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		userService:     userService,
	}
}

func activityID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, &activity.ValidationError{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	var req activity.CreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	res, err := h.activityService.Create(ctx, u.ID, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to log activity")
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
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

	q := r.URL.Query()
	entries, err := h.activityService.List(ctx, u.ID, services.ListParams{
		Date:      q.Get("date"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Limit:     limit,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list activities")
		return
	}
	if entries == nil {
		entries = []*activity.Entry{}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *ActivityHandler) Today(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	summary, err := h.activityService.Today(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load today's activity")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *ActivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	stats, err := h.activityService.Stats(ctx, u.ID, r.URL.Query().Get("period"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to load stats")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	id, err := activityID(r)
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	entry, err := h.activityService.Get(ctx, u.ID, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load activity")
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	id, err := activityID(r)
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	var req activity.UpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	outcome, err := h.activityService.Update(ctx, u.ID, id, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update activity")
		return
	}
	respondWithJSON(w, http.StatusOK, outcome)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	id, err := activityID(r)
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	removed, err := h.activityService.Delete(ctx, u.ID, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to delete activity")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Activity deleted",
		"points_removed": removed,
	})
}
