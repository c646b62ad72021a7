package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/user"
	"fitQuestAPI/tests/helpers"
)

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := helpers.NewTestServer(t, store.NewMemory(), monday)

	var body map[string]string
	code := srv.Do(t, http.MethodGet, "/api/v1/user", "", nil, &body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["error"])

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/gamification/points", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnregisteredSubjectIsNotFound(t *testing.T) {
	srv := helpers.NewTestServer(t, store.NewMemory(), monday)

	assert.Equal(t, http.StatusNotFound, srv.Do(t, http.MethodGet, "/api/v1/user", "user_ghost", nil, nil))
	assert.Equal(t, http.StatusNotFound, srv.Do(t, http.MethodGet, "/api/v1/gamification/points", "user_ghost", nil, nil))
}

func TestRegisterValidation(t *testing.T) {
	srv := helpers.NewTestServer(t, store.NewMemory(), monday)

	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodPost, "/api/v1/user", "user_a", user.RegisterRequest{Username: "a!"}, nil))
	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodPost, "/api/v1/user", "user_a", user.RegisterRequest{Username: "anna", Email: "nope"}, nil))

	register(t, srv, "user_a", "anna")
	assert.Equal(t, http.StatusConflict, srv.Do(t, http.MethodPost, "/api/v1/user", "user_a", user.RegisterRequest{Username: "anna2"}, nil))
}

func TestActivityValidation(t *testing.T) {
	srv := helpers.NewTestServer(t, store.NewMemory(), monday)
	register(t, srv, "user_a", "anna")

	future := map[string]interface{}{"date": "2025-03-12", "steps": 100}
	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodPost, "/api/v1/activities", "user_a", future, nil))

	negative := map[string]interface{}{"steps": -1}
	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodPost, "/api/v1/activities", "user_a", negative, nil))

	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodGet, "/api/v1/activities/not-a-uuid", "user_a", nil, nil))
	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodGet, "/api/v1/activities/stats?period=yearly", "user_a", nil, nil))
	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodGet, "/api/v1/leaderboard/weekly?category=bogus", "user_a", nil, nil))
	assert.Equal(t, http.StatusBadRequest, srv.Do(t, http.MethodGet, "/api/v1/leaderboard/my-rank?type=yearly", "user_a", nil, nil))
}

func TestHealth(t *testing.T) {
	srv := helpers.NewTestServer(t, store.NewMemory(), monday)

	var body map[string]string
	assert.Equal(t, http.StatusOK, srv.Do(t, http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "healthy", body["status"])
}
