package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/ledger"
	"github.com/Richrosh3/online-casino/internal/random"
	"github.com/Richrosh3/online-casino/internal/registry"
	"github.com/Richrosh3/online-casino/internal/ws"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	led := ledger.NewMemory()
	deps := game.Deps{Ledger: led, Random: random.NewSeeded(1), NumDecks: 2, ReshufflePct: 0.75}
	reg := registry.New(deps, quartz.NewReal(), time.Minute, 0)
	hub := ws.NewHub(reg, led, 100000)
	return newRouter(reg, hub, led)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["ok"])
}

func TestCreateThenListSessions(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/blackjack", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		SessionID string `json:"session_id"`
		Game      string `json:"game"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, "blackjack", created.Game)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/blackjack", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Game     string         `json:"game"`
		Sessions map[string]int `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, "blackjack", listed.Game)
	assert.Contains(t, listed.Sessions, created.SessionID)
	assert.Equal(t, 0, listed.Sessions[created.SessionID])
}

func TestUnknownGameKindIs404(t *testing.T) {
	router := newTestRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, "/api/sessions/go-fish", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unknown_game", body["error"])
	}
}
