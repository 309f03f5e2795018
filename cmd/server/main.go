package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"supportline-backend/internal/api"
	"supportline-backend/internal/assistant"
	"supportline-backend/internal/config"
	"supportline-backend/internal/crypto"
	"supportline-backend/internal/handlers"
	"supportline-backend/internal/integrations/email"
	slackout "supportline-backend/internal/integrations/slack"
	"supportline-backend/internal/logger"
	"supportline-backend/internal/services"
	"supportline-backend/internal/store/postgres"
)

func main() {
	// 1. Load configuration and logger.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logg := logger.New(cfg)
	logg.Info().Msg("starting supportline backend")

	// 2. Initialize the database connection pool.
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		logg.Fatal().Err(err).Msg("unable to create database connection pool")
	}
	defer dbpool.Close()

	if err := dbpool.Ping(dbCtx); err != nil {
		logg.Fatal().Err(err).Msg("unable to ping database")
	}
	logg.Info().Msg("database connection pool established")

	// 3. Initialize dependencies (store, integrations, services, handlers).
	pgStore := postgres.NewPostgresStore(dbpool, logg)

	aead, err := crypto.NewAESGCM(cfg.EncryptionKey)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to create AES-GCM cipher")
	}

	provider := assistant.NewOpenAIClient(cfg.AssistantAPIKey, cfg.AssistantBaseURL, logg)

	tools := assistant.NewToolRegistry(logg)
	tools.Register(assistant.ToolSaveContactDetails, assistant.SaveContactDetailsHandler(pgStore))
	runner := assistant.NewRunner(provider, tools, cfg.AssistantPollInterval, cfg.AssistantRunTimeout, logg)

	var emailSender services.EmailSender
	if cfg.EmailAPIKey != "" {
		emailSender = email.NewClient(cfg.EmailAPIKey, cfg.EmailBaseURL, logg)
	} else {
		logg.Warn().Msg("email api key not configured, notifications disabled")
	}
	notifications := services.NewNotificationService(emailSender, logg)

	slackSender := slackout.NewSender(logg)

	authService := services.NewAuthService(pgStore, cfg, logg)
	orgService := services.NewOrgService(pgStore, provider, aead, logg)
	knowledgeService := services.NewKnowledgeFileService(pgStore, provider, logg)
	conversationService := services.NewConversationService(pgStore, runner, notifications, logg)
	slackService := services.NewSlackService(pgStore, conversationService, provider, notifications, slackSender, aead, logg)

	routerDeps := api.RouterDependencies{
		AuthHandler:       handlers.NewAuthHandler(authService, logg),
		ChatHandler:       handlers.NewChatHandler(conversationService, logg),
		OrgHandler:        handlers.NewOrgHandler(orgService, knowledgeService, logg),
		SlackEventHandler: handlers.NewSlackEventHandler(slackService, logg),
		Config:            cfg,
	}
	router := api.NewRouter(routerDeps)

	// 4. Configure and start the HTTP server.
	server := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: 5 * time.Second,
		// Chat requests block on the assistant run; the write timeout has
		// to outlast the run deadline.
		WriteTimeout: cfg.AssistantRunTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logg.Info().Str("port", cfg.HTTPPort).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-stopChan
	logg.Info().Msg("shutdown signal received, draining")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error().Err(err).Msg("graceful shutdown failed")
	}
	logg.Info().Msg("server shutdown complete")
}
