package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"github.com/example/towncal/internal/caldav"
	"github.com/example/towncal/internal/config"
	"github.com/example/towncal/internal/feed"
	httpserver "github.com/example/towncal/internal/http"
	"github.com/example/towncal/internal/publish"
	"github.com/example/towncal/internal/store"
)

func main() {
	log.Println("Starting TownCal server...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stor := store.New(pool)

	// Claims never survive a restart; whatever is still marked claimed
	// belongs to a worker that died mid-batch.
	if n, err := stor.Jobs.ResetClaims(ctx); err != nil {
		log.Fatalf("failed to reset orphaned queue claims: %v", err)
	} else if n > 0 {
		log.Printf("released %d orphaned publish queue claims", n)
	}

	davClient := caldav.NewClient(cfg.CalDAV.ServerURL, cfg.CalDAV.Username, cfg.CalDAV.Password, logger)
	collectionURL := davClient.CollectionURL(cfg.CalDAV.Collection)

	publisher := publish.NewPublisher(stor.Submissions, davClient, collectionURL, cfg.Publish.UIDHost, logger)
	worker := publish.NewWorker(stor.Jobs, publisher, cfg.Publish.BatchSize, cfg.Publish.RetryAttempts, logger)
	feedSvc := feed.NewService(davClient, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Publish.CronSchedule, func() { worker.Run(ctx) }); err != nil {
		log.Fatalf("invalid publish cron schedule %q: %v", cfg.Publish.CronSchedule, err)
	}
	scheduler.Start()

	h := httpserver.NewHandler(stor, publisher, worker, feedSvc, logger)
	r := httpserver.NewRouter(cfg, stor, h)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	cronCtx := scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	// Let an in-flight publish batch finish before exiting.
	select {
	case <-cronCtx.Done():
	case <-shutdownCtx.Done():
	}
}
