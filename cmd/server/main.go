// Command server runs the Sellexa marketplace gateway: it owns the session
// store tree, keeps a local SQLite snapshot for offline hydration, talks to
// the managed backend over REST, and exposes the state over a versioned HTTP
// API with tracing, metrics, and graceful shutdown.
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

	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/config"
	httpapi "github.com/sellexa/go-marketplace-backend/internal/http"
	"github.com/sellexa/go-marketplace-backend/internal/observability"
	"github.com/sellexa/go-marketplace-backend/internal/realtime"
	"github.com/sellexa/go-marketplace-backend/internal/repo"
	"github.com/sellexa/go-marketplace-backend/internal/store"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
	"github.com/sellexa/go-marketplace-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sdCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Local snapshot DB
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open sqlite")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	// Backend gateways
	client := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.Timeout)
	hub := realtime.NewHub()

	// The watcher is the sole producer on the auth event stream; the user
	// store's listener consumes it.
	auth := supabase.NewAuth(client)
	go auth.Watch(ctx, time.Minute)

	st := store.New(store.Deps{
		Cache:         cache.New(30 * time.Second),
		Auth:          auth,
		Profiles:      supabase.NewProfiles(client),
		Products:      supabase.NewProducts(client),
		Saves:         supabase.NewSaves(client),
		Notifications: supabase.NewNotifications(client),
		Conversations: supabase.NewConversations(client),
		Messages:      supabase.NewMessages(client),
		Typing:        supabase.NewTyping(client),
		Reactions:     supabase.NewReactions(client),
		Realtime:      supabase.NewHubRealtime(hub),

		Local:     repo.NewLocal(db),
		FeedLimit: cfg.Store.FeedLimit,

		FeedTTL:          cfg.Store.FeedTTL,
		ProfileTTL:       cfg.Store.ProfileTTL,
		ConversationsTTL: cfg.Store.ConversationsTTL,
	})
	st.Start(ctx)

	// HTTP surface
	r := gin.New()
	httpapi.RegisterRoutes(r, db, st, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sdCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sdCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
