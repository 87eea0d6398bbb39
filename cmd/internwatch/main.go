package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"internwatch/internal/config"
	"internwatch/internal/events"
	"internwatch/internal/feed"
	"internwatch/internal/httpapi"
	"internwatch/internal/logger"
	"internwatch/internal/notify"
	"internwatch/internal/pipeline"
	"internwatch/internal/scheduler"
	"internwatch/internal/secrets"
	"internwatch/internal/snapshot"
	"internwatch/internal/store"
	"internwatch/internal/tenant"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("INTERNWATCH_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.LogLevel)
	log.Info("starting", "config", cfgPath, "data_dir", cfg.App.DataDir)

	// The snapshot store's file lock doubles as the single-active-poller
	// guard: a second instance pointed at the same data dir fails here.
	snapshots, err := snapshot.Open(cfg.App.DataDir)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer snapshots.Close()

	tenants, err := tenant.Open(cfg.App.DataDir)
	if err != nil {
		return fmt.Errorf("open tenant config: %w", err)
	}

	archive, err := store.Open(filepath.Join(cfg.App.DataDir, "internwatch.db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	feedClient := feed.NewClient(cfg.Feed.URL, secrets.FeedToken(), cfg.RetryPolicy(), log)
	dispatcher := notify.NewDispatcher(notify.NewWebhookSink(), cfg.Delivery.SendsPerSecond, log)
	runner := pipeline.NewRunner(feedClient, tenants, snapshots, dispatcher, archive, log)

	hub := events.NewHub()
	runner.OnPosted(func(stats pipeline.Stats) {
		hub.Publish(events.New(events.TypeListingsPosted, stats))
	})

	sched := scheduler.New(runner, tenants, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	intervalHours, err := tenants.ScrapeIntervalHours()
	if err != nil {
		return fmt.Errorf("read interval: %w", err)
	}
	if err := sched.Start(ctx, intervalHours); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	mux := httpapi.NewMux(httpapi.Deps{
		Runner:    runner,
		Scheduler: sched,
		Tenants:   tenants,
		Archive:   archive,
		Hub:       hub,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover(log), httpapi.AccessLog(log)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
