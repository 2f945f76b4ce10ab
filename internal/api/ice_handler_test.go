package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/observer/parley/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetICEConfig(t *testing.T) {
	handler := NewICEHandler(&media.Config{
		STUNURLs:     []string{"stun:stun.l.google.com:19302"},
		TURNURLs:     []string{"turn:turn.example.com:3478"},
		TURNUsername: "user",
		TURNPassword: "secret",
	})

	req := httptest.NewRequest(http.MethodGet, "/webrtc/config", nil)
	rec := httptest.NewRecorder()
	handler.GetICEConfig(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		ICEServers []media.ICEServer `json:"iceServers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.ICEServers, 2)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, body.ICEServers[0].URLs)
	assert.Equal(t, "user", body.ICEServers[1].Username)
}
