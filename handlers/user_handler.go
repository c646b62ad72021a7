package handlers

import (
	"errors"
	"log"
	"net/http"

	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/notification"
	"fitQuestAPI/internal/types/user"
	"fitQuestAPI/middleware"
	"fitQuestAPI/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	u, err := h.userService.Register(ctx, clerkID, &req)
	if errors.Is(err, store.ErrAlreadyExists) {
		respondWithError(w, http.StatusConflict, "User already registered or username taken")
		return
	}
	if err != nil {
		respondWithServiceError(w, err, "Failed to register user")
		return
	}

	log.Printf("User Handler: registered %s for subject %s", u.Username, clerkID)
	respondWithJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	profile, err := h.userService.Profile(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load profile")
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	var req notification.RegisterDeviceRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	if err := h.userService.RegisterDevice(ctx, u.ID, &req); err != nil {
		respondWithServiceError(w, err, "Failed to register device")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered successfully"})
}
