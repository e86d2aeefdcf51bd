// Command server runs the chat companion HTTP API: local account registry,
// session state, and assistant-backed conversations over a key-value store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dpoulios/go-chat-companion/internal/assistant"
	"github.com/dpoulios/go-chat-companion/internal/auth"
	"github.com/dpoulios/go-chat-companion/internal/config"
	httpapi "github.com/dpoulios/go-chat-companion/internal/http"
	"github.com/dpoulios/go-chat-companion/internal/kvstore"
	"github.com/dpoulios/go-chat-companion/internal/observability"
	"github.com/dpoulios/go-chat-companion/internal/repo"
	"github.com/dpoulios/go-chat-companion/internal/services"
	"github.com/dpoulios/go-chat-companion/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set env directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting chat companion")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, err := kvstore.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open store failed")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()
	log.Info().Str("path", cfg.DBPath).Msg("store ready")

	// Persistence and session state
	users := repo.NewUserDirectory(store)
	convs := repo.NewConversationRepo(store, users)
	session := auth.NewSession(store, users)
	if u, err := session.Restore(ctx); err != nil && !errors.Is(err, auth.ErrNoSession) {
		log.Warn().Err(err).Msg("session restore")
	} else if err == nil {
		log.Info().Str("email", u.Email).Msg("session restored")
	}

	// Upstream assistant
	client := assistant.New(assistant.Config{
		BaseURL:     cfg.Assistant.BaseURL,
		APIKey:      cfg.Assistant.APIKey,
		Model:       sysutil.FirstNonEmpty(cfg.Assistant.Model, "command-r-plus"),
		Temperature: cfg.Assistant.Temperature,
		Timeout:     cfg.Assistant.Timeout,
	})

	// Services
	accounts := services.NewAccountService(users)
	chat := services.NewConversationService(convs, users, client)
	chat.MaxPromptRunes = cfg.MaxPromptRunes

	// HTTP surface
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Accounts:      accounts,
		Session:       session,
		Conversations: chat,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
	log.Info().Msg("bye")
}
