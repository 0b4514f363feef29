package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrasedash/go-socket-phrasedash/internal/game"
)

func newTestServer() *Server {
	return NewServer(game.Config{
		Phrase: func() string { return "The quick brown fox jumps over the lazy dog" },
	})
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHandleHealthRejectsPost(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleCheckRoom(t *testing.T) {
	s := newTestServer()

	// No websocket is attached to this connection id; deliveries just go
	// nowhere, which the coordinator treats as an unreachable peer.
	s.Coordinator.Join("conn-1", "alice")

	tests := []struct {
		name   string
		roomID string
		exists bool
	}{
		{"live room", "1", true},
		{"unknown room", "42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/check-room?room_id="+tt.roomID, nil)
			rec := httptest.NewRecorder()
			s.HandleCheckRoom(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]bool
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.exists, body["exists"])
		})
	}
}

func TestHandleCheckRoomMissingID(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/check-room", nil)
	rec := httptest.NewRecorder()
	s.HandleCheckRoom(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
