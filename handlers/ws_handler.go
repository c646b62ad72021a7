package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"fitQuestAPI/internal/realtime"
	"fitQuestAPI/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub         *realtime.Hub
	userService *services.UserService
}

func NewWSHandler(hub *realtime.Hub, userService *services.UserService) *WSHandler {
	return &WSHandler{
		hub:         hub,
		userService: userService,
	}
}

// Connect upgrades an authenticated request and subscribes the socket to the
// user's gamification events and the shared leaderboard feed.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	u, ok := currentUser(ctx, w, h.userService)
	cancel()
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS Handler: could not upgrade connection: %v", err)
		return
	}
	h.hub.Serve(conn, u.ID)
}
