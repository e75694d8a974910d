// Package main is the entry point for the StaySync calendar sync server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/staysync/backend/internal/api"
	"github.com/staysync/backend/internal/calendar"
	"github.com/staysync/backend/internal/config"
	"github.com/staysync/backend/internal/storage"
	"github.com/staysync/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	dataDir := flag.String("data", "", "Data directory for SQLite database (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	log.Printf("Starting StaySync calendar sync server (version: %s)...", version)

	// Initialize database
	dbPath := cfg.Storage.DataDir + "/staysync.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	propertyRepo := storage.NewPropertyRepository(db)
	reservationRepo := storage.NewReservationRepository(db)
	statusRepo := storage.NewSyncStatusRepository(db)

	// Initialize sync service and scheduler
	fetcher := calendar.NewFeedFetcher(cfg.Feed.FetchTimeout.Std(), cfg.Feed.RelayURL)
	syncService := calendar.NewSyncService(
		propertyRepo,
		reservationRepo,
		statusRepo,
		fetcher,
		cfg.Sync.FreshnessWindow.Std(),
	)

	scheduler := calendar.NewScheduler(syncService, propertyRepo, hub, cfg.Sync.DefaultIntervalMin)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Printf("Warning: Failed to start sync scheduler: %v", err)
	}

	// Initialize HTTP router
	router := api.NewRouter(
		db,
		api.Repositories{
			Properties:   propertyRepo,
			Reservations: reservationRepo,
			SyncStatus:   statusRepo,
		},
		hub,
		syncService,
		scheduler,
		cfg.Server.StaticDir,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
