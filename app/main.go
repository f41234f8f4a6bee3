package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okutsev/certwatch/app/api"
	"github.com/okutsev/certwatch/app/cfg"
	"github.com/okutsev/certwatch/app/database"
	"github.com/okutsev/certwatch/app/feed"
	"github.com/okutsev/certwatch/app/notify"
	"github.com/okutsev/certwatch/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting CertWatch", "version", appConfig.Version,
		"feeds", len(appConfig.Feeds), "watchlist_terms", len(appConfig.Watchlist))

	// Store initialization is fatal: the poll loop never starts without it.
	db, err := database.NewConnection(
		appConfig.DBHost, appConfig.DBPort, appConfig.DBUser,
		appConfig.DBPassword, appConfig.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	migrationVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database ready", "migration_version", migrationVersion, "dirty", dirty)

	store := database.NewBulletinRepository(db)

	sources := make([]feed.Source, 0, len(appConfig.Feeds))
	for _, f := range appConfig.Feeds {
		slog.Info("Watching feed", "label", f.Label, "url", f.URL)
		sources = append(sources, feed.Source{Label: f.Label, URL: f.URL})
	}
	if len(sources) == 0 {
		slog.Warn("No feeds configured, nothing will be polled")
	}

	httpTimeout := time.Duration(appConfig.HTTPTimeout) * time.Second
	httpClient := &http.Client{}

	poller := feed.NewPoller(httpClient, store, appConfig.UserAgent, httpTimeout)

	generatorURL := appConfig.BaseUrl
	if generatorURL == "" {
		generatorURL = "http://localhost:" + appConfig.Port
	}
	generatorURL += "/metrics"

	dispatcher := notify.NewDispatcher(httpTimeout,
		notify.NewTelegramChannel(httpClient, appConfig.TelegramBotToken, appConfig.TelegramChatID),
		notify.NewAlertmanagerChannel(httpClient, appConfig.AlertmanagerURL, generatorURL),
	)

	scheduler := tasks.NewScheduler(sources, poller, store, dispatcher, appConfig.Watchlist,
		time.Duration(appConfig.PollInterval)*time.Second, appConfig.WorkerCount)
	scheduler.Start()

	handler := api.NewHandler(store, sources, appConfig.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	// Workers finish their current unit of work and drain first, so no store
	// write is outstanding when the connection pool closes below.
	scheduler.Stop()
	slog.Info("Scheduler stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	if err := db.Close(); err != nil {
		slog.Error("Database close error", "error", err)
	}

	slog.Info("Shutdown complete")
}
