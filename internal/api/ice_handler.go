package api

import (
	"net/http"

	"github.com/observer/parley/internal/media"
)

// ICEHandler exposes the STUN/TURN configuration clients need to build
// their peer connections.
type ICEHandler struct {
	cfg *media.Config
}

// NewICEHandler creates a new ICEHandler
func NewICEHandler(cfg *media.Config) *ICEHandler {
	return &ICEHandler{cfg: cfg}
}

// GetICEConfig returns the ICE server list.
func (h *ICEHandler) GetICEConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"iceServers": h.cfg.GetICEServers(),
	})
}
