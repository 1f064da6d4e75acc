package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/catalog"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/database"
	"github.com/gdg-garage/event-registration-api/internal/handlers"
	"github.com/gdg-garage/event-registration-api/internal/ledger"
	"github.com/gdg-garage/event-registration-api/internal/notifier"
	"github.com/gdg-garage/event-registration-api/internal/session"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := newSessionStore(ctx, cfg, db)

	authHandler := auth.NewAuthHandler(cfg, db, sessions)
	eventHandler := handlers.NewEventHandler(catalog.New(db))
	registrationHandler := handlers.NewRegistrationHandler(ledger.New(db), newNotifier(cfg))

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, authHandler, eventHandler, registrationHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "database", cfg.DatabasePath, "sessions", cfg.SessionStore)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	slog.Info("server stopped")
}

func newSessionStore(ctx context.Context, cfg *config.Config, db *gorm.DB) session.Store {
	if cfg.SessionStore == "memory" {
		return session.NewMemoryStore()
	}

	store := session.NewGormStore(db)
	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		slog.Warn("failed to purge expired sessions", "error", err)
	} else if purged > 0 {
		slog.Info("purged expired sessions", "count", purged)
	}
	return store
}

// newNotifier returns the Discord notifier when it is configured and a no-op
// one otherwise.
func newNotifier(cfg *config.Config) notifier.Notifier {
	discord, err := notifier.NewDiscordNotifier(cfg)
	if err != nil {
		slog.Info("discord notifier not initialized", "reason", err)
		return notifier.Nop{}
	}
	return discord
}
