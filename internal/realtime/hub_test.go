package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitQuestAPI/internal/types/notification"
)

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, userID)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("client never registered")
	}
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHubRoutesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	alice, bob := uuid.New(), uuid.New()
	aliceConn := dial(t, hub, alice)
	bobConn := dial(t, hub, bob)

	hub.Broadcast(&notification.Event{Kind: notification.EventLeaderboard, Title: "sync"})
	assert.Equal(t, notification.EventLeaderboard, readEnvelope(t, aliceConn).Type)
	assert.Equal(t, notification.EventLeaderboard, readEnvelope(t, bobConn).Type)

	hub.Broadcast(&notification.Event{Kind: notification.EventBadgeEarned, UserID: alice, Title: "First Steps"})
	hub.Broadcast(&notification.Event{Kind: notification.EventLeaderboard, Title: "after"})

	got := readEnvelope(t, aliceConn)
	assert.Equal(t, notification.EventBadgeEarned, got.Type)
	assert.Equal(t, "First Steps", got.Data.Title)

	// Bob skips Alice's badge and sees the next public event.
	next := readEnvelope(t, bobConn)
	assert.Equal(t, notification.EventLeaderboard, next.Type)
	assert.Equal(t, "after", next.Data.Title)
}

func TestBroadcastAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		hub.Broadcast(&notification.Event{Kind: notification.EventLeaderboard})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after hub stopped")
	}
}
