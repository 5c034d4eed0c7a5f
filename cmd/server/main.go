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

	"planningpoker/internal/auth"
	"planningpoker/internal/config"
	"planningpoker/internal/database"
	"planningpoker/internal/events"
	"planningpoker/internal/handlers"
	"planningpoker/internal/realtime"
	"planningpoker/internal/security"
	"planningpoker/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	if cfg.SessionSecret == "change-me-in-production" {
		log.Println("Warning: SESSION_SECRET is not set, using the insecure default")
	}

	// The hub looks games up through a service that publishes nothing
	hub := realtime.NewHub(service.NewGameService(db, events.Nop{}), cfg.AllowedOrigin)

	gameService := service.NewGameService(db, hub)
	playerService := service.NewPlayerService(db, hub)
	roundService := service.NewRoundService(db, hub)
	voteService := service.NewVoteService(db, hub)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
		emailService, _ = service.NewEmailService(cfg.AWSRegion, "", cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	}
	invitationService := service.NewInvitationService(db, emailService)

	tokens := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionDuration)
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	router := handlers.NewRouter(handlers.Handlers{
		Middleware: handlers.NewMiddleware(tokens, csrf, limiter),
		Players:    handlers.NewPlayerHandler(playerService, tokens, csrf),
		Games:      handlers.NewGameHandler(gameService, playerService, invitationService),
		Rounds:     handlers.NewRoundHandler(roundService, voteService),
		WebSocket:  hub,
	})

	handler := handlers.Logging(handlers.CORS(cfg.AllowedOrigin)(router))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
