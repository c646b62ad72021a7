package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/user"
	"fitQuestAPI/middleware"
	"fitQuestAPI/services"
)

var requestTimeout = 5 * time.Second

// SetRequestTimeout bounds the work of every handler in the package.
func SetRequestTimeout(d time.Duration) {
	if d > 0 {
		requestTimeout = d
	}
}

func withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors onto status codes. fallback is
// shown for anything unexpected.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *activity.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrAlreadyExists):
		respondWithError(w, http.StatusConflict, "Already exists")
	case errors.Is(err, store.ErrVersionConflict):
		respondWithError(w, http.StatusConflict, "Concurrent update, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusInternalServerError, "Request timed out, please retry")
	default:
		log.Printf("Handler error: %s: %v", fallback, err)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// currentUser resolves the authenticated subject to its profile. It writes
// the error response itself and reports false when the caller should stop.
func currentUser(ctx context.Context, w http.ResponseWriter, users *services.UserService) (*user.User, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return nil, false
	}

	u, err := users.GetUserByClerkID(ctx, clerkID)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	if err != nil {
		respondWithServiceError(w, err, "Failed to load user")
		return nil, false
	}
	return u, true
}

// queryInt reads an integer query parameter. Missing means 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &activity.ValidationError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &activity.ValidationError{Field: "body", Message: "invalid request body"}
	}
	return nil
}
