package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/lifeskills-engine/internal/config"
	"github.com/jwebster45206/lifeskills-engine/internal/handlers"
	"github.com/jwebster45206/lifeskills-engine/internal/logger"
	"github.com/jwebster45206/lifeskills-engine/internal/middleware"
	svcevents "github.com/jwebster45206/lifeskills-engine/internal/services/events"
	redisstore "github.com/jwebster45206/lifeskills-engine/internal/storage"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Life Skills Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"session_store", cfg.SessionStore,
		"events_enabled", cfg.EventsEnabled)

	catalog, err := loadCatalog(cfg, log)
	if err != nil {
		log.Error("Failed to load content", "error", err, "path", cfg.ContentPath)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = redisstore.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("Invalid Redis configuration", "error", err)
			os.Exit(1)
		}
	}

	var store storage.Storage
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rs := redisstore.NewRedisStorage(redisClient, cfg.SessionTTL, log)
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := rs.WaitForConnection(waitCtx, 30, 2*time.Second)
		waitCancel()
		if err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		store = rs
	default:
		store = storage.NewMemoryStorage(cfg.SessionTTL)
	}
	log.Info("Session storage ready", "store", cfg.SessionStore, "ttl", cfg.SessionTTL)

	var publisher svcevents.Publisher = svcevents.Nop{}
	if cfg.EventsEnabled {
		publisher = svcevents.NewBroadcaster(redisClient, log)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, catalog, log))
	mux.Handle("/v1/catalog", handlers.NewCatalogHandler(catalog, log))

	sessionHandler := handlers.NewSessionHandler(catalog, store, publisher, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Logger(log)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if redisClient != nil && cfg.SessionStore != config.SessionStoreRedis {
		_ = redisClient.Close()
	}

	log.Info("Server exited")
}

// loadCatalog opens the configured content. Rejected stories are logged and
// skipped unless STRICT_CONTENT is set.
func loadCatalog(cfg *config.Config, log *slog.Logger) (*content.Catalog, error) {
	catalog, err := content.Open(cfg.ContentPath)
	if catalog == nil {
		return nil, err
	}
	if err != nil {
		if cfg.StrictContent {
			return nil, err
		}
		log.Warn("Some content was rejected", "error", err)
	}
	for _, w := range catalog.Lint() {
		log.Warn("Content warning", "warning", w)
	}
	log.Info("Content loaded",
		"stories", len(catalog.Stories()),
		"achievements", len(catalog.Achievements()),
		"match_boards", len(catalog.MatchBoards()))
	return catalog, nil
}
