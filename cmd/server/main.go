package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/api"
	"github.com/observer/parley/internal/auth"
	"github.com/observer/parley/internal/call"
	"github.com/observer/parley/internal/config"
	"github.com/observer/parley/internal/database"
	"github.com/observer/parley/internal/gateway"
	"github.com/observer/parley/internal/media"
	"github.com/observer/parley/internal/notify"
	"github.com/observer/parley/internal/pubsub"
	"github.com/observer/parley/internal/server"
)

func main() {
	// Structured logging from the start
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create context for initialization
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	if err := database.EnsureSchema(ctx, db, cfg.MigrationsDir); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	profileRepo := database.NewProfileRepository(db)
	callRepo := database.NewCallRecordRepository(db)

	// Initialize token service (use a default key for dev if not set)
	jwtKey := cfg.JWTSigningKey
	if jwtKey == "" {
		if cfg.IsDevelopment() {
			jwtKey = "dev-signing-key-do-not-use-in-production!!" // 44 chars
			slog.Warn("using default JWT signing key - DO NOT USE IN PRODUCTION")
		} else {
			slog.Error("JWT_SIGNING_KEY is required in production")
			os.Exit(1)
		}
	}

	tokenService, err := auth.NewTokenService(jwtKey)
	if err != nil {
		slog.Error("failed to create token service", "error", err)
		os.Exit(1)
	}

	// Initialize PubSub (in-memory for single instance, Redis for multi)
	var ps pubsub.PubSub
	switch cfg.PubSubType {
	case "redis":
		redisPS, err := pubsub.NewRedisPubSub(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		ps = redisPS
	default:
		ps = pubsub.NewMemoryPubSub()
	}
	defer ps.Close()

	// Initialize media endpoint
	iceConfig := &media.Config{
		STUNURLs:     cfg.ICESTUNURLs,
		TURNURLs:     cfg.ICETURNURLs,
		TURNUsername: cfg.TURNUsername,
		TURNPassword: cfg.TURNPassword,
	}
	endpoint := media.NewPionEndpoint(iceConfig, logger)

	notifier := notify.NewLogNotifier(logger)

	// One call engine per authenticated participant, built on first connect.
	factory := func(ctx context.Context, userID uuid.UUID, displayName string) (gateway.CallSession, error) {
		avatarURL := ""
		if profile, err := profileRepo.Get(ctx, userID); err == nil {
			displayName = profile.FullName
			avatarURL = profile.AvatarURL
		}
		engine := call.NewEngine(call.Config{
			ParticipantID: userID,
			DisplayName:   displayName,
			AvatarURL:     avatarURL,
			EndGrace:      cfg.CallEndGrace,
		}, ps, callRepo, endpoint, notifier, logger)
		return engine, nil
	}

	// Initialize WebSocket hub and handler
	hub := gateway.NewHub(tokenService, factory, logger)
	go hub.Run(context.Background())
	wsHandler := gateway.NewHandler(hub, logger)

	// Initialize handlers
	authHandler := api.NewAuthHandler(tokenService, profileRepo, cfg.IsDevelopment(), logger)
	callHandler := api.NewCallHandler(callRepo, logger)
	iceHandler := api.NewICEHandler(iceConfig)

	// Create and start server
	deps := &server.Dependencies{
		DB:           db,
		TokenService: tokenService,
		AuthHandler:  authHandler,
		CallHandler:  callHandler,
		ICEHandler:   iceHandler,
		WSHandler:    wsHandler,
		Logger:       logger,
	}

	srv := server.New(cfg, deps)

	// Graceful shutdown setup
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-shutdownCtx.Done()
	slog.Info("shutting down gracefully...")

	// Give active connections 10 seconds to finish
	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer timeoutCancel()

	if err := srv.Shutdown(timeoutCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
