package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/observer/parley/internal/api"
	"github.com/observer/parley/internal/auth"
	"github.com/observer/parley/internal/config"
	"github.com/observer/parley/internal/database"
	"github.com/observer/parley/internal/gateway"
)

// Dependencies holds all service dependencies for the server
type Dependencies struct {
	DB           *database.DB
	TokenService *auth.TokenService
	AuthHandler  *api.AuthHandler
	CallHandler  *api.CallHandler
	ICEHandler   *api.ICEHandler
	WSHandler    *gateway.Handler
	Logger       *slog.Logger
}

// New creates an HTTP server with all routes configured.
func New(cfg *config.Config, deps *Dependencies) *http.Server {
	mux := http.NewServeMux()

	// Register routes
	registerRoutes(mux, cfg, deps)

	// Wrap with middleware
	handler := chainMiddleware(mux,
		requestIDMiddleware,
		corsMiddleware(cfg),
		loggingMiddleware(deps.Logger),
		recoverMiddleware(deps.Logger),
	)

	return &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, deps *Dependencies) {
	// Health check - essential for docker, k8s, load balancers
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Ready check - verifies DB connectivity
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","error":"database unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	// =========================================================================
	// Auth routes
	// =========================================================================
	authMiddleware := auth.Middleware(deps.TokenService)

	mux.HandleFunc("POST /auth/dev-token", deps.AuthHandler.DevToken)
	mux.Handle("GET /auth/me", authMiddleware(http.HandlerFunc(deps.AuthHandler.Me)))

	// =========================================================================
	// Call history routes
	// =========================================================================
	mux.Handle("GET /calls", authMiddleware(http.HandlerFunc(deps.CallHandler.GetCallHistory)))
	mux.Handle("GET /calls/{id}", authMiddleware(http.HandlerFunc(deps.CallHandler.GetCall)))

	// =========================================================================
	// WebRTC configuration (public; clients need it before authenticating media)
	// =========================================================================
	mux.HandleFunc("GET /webrtc/config", deps.ICEHandler.GetICEConfig)

	// =========================================================================
	// WebSocket route
	// =========================================================================
	mux.Handle("GET /ws", deps.WSHandler)
}
