package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/authz"
	"github.com/stanstork/people-api/internal/config"
	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/handlers"
	"github.com/stanstork/people-api/internal/middleware"
	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/notification"
	"github.com/stanstork/people-api/internal/people"
	"github.com/stanstork/people-api/internal/realtime"
	"github.com/stanstork/people-api/internal/routes"
	"github.com/stanstork/people-api/internal/worker"
)

type application struct {
	config        *config.Config
	backend       *directory.Backend
	sessions      *people.Sessions
	hub           *realtime.Hub
	notifications notification.Service
	logger        zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown log level, keeping info")
	}

	// Reference directory backed by in-memory repositories.
	backend := directory.NewBackend(
		directory.WithInviteTTL(cfg.People.InviteTTL),
		directory.WithLatency(cfg.People.Latency),
		directory.WithLogger(logger),
	)
	if err := seedBackend(backend, cfg.Seed, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed directory")
	}

	// Change events fan out to WebSocket clients.
	hub := realtime.NewHub(logger)
	notificationService := notification.NewService(logger, hub)

	peopleCfg := people.Config{
		PageSize:           cfg.People.PageSize,
		SearchDelay:        cfg.People.SearchDebounce,
		SearchMinLength:    cfg.People.SearchMinLength,
		SerializeRefreshes: cfg.People.SerializeRefreshes,
	}
	sessions := people.NewSessions(backend.For, peopleCfg, logger, notificationService)
	defer sessions.CloseAll()

	app := &application{
		config:        cfg,
		backend:       backend,
		sessions:      sessions,
		hub:           hub,
		notifications: notificationService,
		logger:        logger,
	}

	// Start the expiry sweeper in a separate goroutine.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	app.startExpirySweeper(sweepCtx, logger)

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		h.ExposedHeaders([]string{middleware.RequestIDHeader}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	authenticator := authz.NewAuthenticator(app.config.JWTSecret)

	return routes.NewRouter(authenticator, routes.Handlers{
		Auth:    handlers.NewAuthHandler(app.backend.Users, authenticator, app.sessions, logger),
		People:  handlers.NewPeopleHandler(app.sessions, logger),
		Invites: handlers.NewInviteHandler(app.sessions, app.backend, logger),
		Friends: handlers.NewFriendHandler(app.sessions, logger),
		Events:  handlers.NewEventsHandler(app.sessions, app.hub, app.config.AllowedOrigins, logger),
	})
}

// startExpirySweeper expires overdue invitations and refreshes the views of
// connected users they concern.
func (app *application) startExpirySweeper(ctx context.Context, logger zerolog.Logger) {
	sweeper := worker.NewExpirySweeper(worker.Config{
		Invites:      app.backend.Invites,
		PollInterval: app.config.People.ExpirySweepInterval,
		OnExpired: func(ctx context.Context, expired []models.Invitation) {
			affected := make(map[string]struct{})
			for _, inv := range expired {
				affected[inv.InviteeUserID] = struct{}{}
				if inv.CreatedBy != nil {
					affected[*inv.CreatedBy] = struct{}{}
				}
			}
			for userID := range affected {
				sess, ok := app.sessions.Lookup(userID)
				if !ok {
					continue
				}
				_ = sess.Registry.Refresh(ctx, people.InvitationsSent)
				_ = sess.Registry.Refresh(ctx, people.InvitationsReceived)
			}
		},
	}, logger)

	go func() {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Expiry sweeper exited")
		}
	}()
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
