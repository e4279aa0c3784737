package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wikifeed/internal/config"
	"wikifeed/internal/feed"
	"wikifeed/internal/lang"
	"wikifeed/internal/logging"
	"wikifeed/internal/state"
	"wikifeed/internal/ui"
	"wikifeed/internal/wiki"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	metricsAddr := flag.String("metrics", "", "Metrics listen address, overrides the config file")
	flag.Parse()

	if err := run(*configPath, *metricsAddr); err != nil {
		fmt.Fprintln(os.Stderr, "wikifeed:", err)
		os.Exit(1)
	}
}

func run(configPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.Metrics.Address = metricsAddr
	}

	// Setup Logger
	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	// tags every record of this run
	if id, err := uuid.NewV7(); err == nil {
		logger = logger.With("session", id.String())
	}
	slog.SetDefault(logger)

	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		cancel()
	}()

	bookmarks, err := state.LoadBookmarks(ctx, store)
	if err != nil {
		return err
	}
	topics, err := state.LoadTopics(ctx, store)
	if err != nil {
		return err
	}

	locale := cfg.Locale
	if locale == "" {
		locale = lang.Normalize(os.Getenv("LANG"), cfg.Languages)
	}

	client := wiki.NewClient(wiki.Options{
		BaseURL:           cfg.API.BaseURL,
		UserAgent:         cfg.API.UserAgent,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
	fetcher := feed.NewFetcher(client, feed.FetcherOptions{
		Timeout:  cfg.API.Timeout,
		Attempts: cfg.API.Attempts,
		FullText: cfg.Feed.FullText,
		Topics:   topics.List,
	})

	var program atomic.Pointer[tea.Program]
	buffer := feed.NewBuffer(ctx, fetcher, feed.BufferOptions{
		Locale:           locale,
		BatchSize:        cfg.Feed.BatchSize,
		Concurrency:      cfg.Feed.Concurrency,
		Threshold:        cfg.Feed.Threshold,
		ExtractThreshold: cfg.Feed.ExtractThreshold,
		BackoffMin:       cfg.Feed.BackoffMin,
		BackoffMax:       cfg.Feed.BackoffMax,
		OnChange: func() {
			if p := program.Load(); p != nil {
				p.Send(ui.FeedChanged{})
			}
		},
	})
	defer buffer.Close()

	if cfg.Metrics.Address != "" {
		go serveMetrics(logger, cfg.Metrics.Address)
	}

	app := ui.NewApp(ui.Config{
		Context:   ctx,
		Feed:      buffer,
		Bookmarks: bookmarks,
		Topics:    topics,
		Wiki:      client,
		Locale:    locale,
		Languages: cfg.Languages,
		SetLocale: buffer.SetLocale,
	})

	logger.Info("Starting wikifeed",
		"locale", locale,
		"store", cfg.Store.Type,
		"batch_size", cfg.Feed.BatchSize)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("ui failed: %w", err)
	}
	logger.Info("wikifeed stopped")
	return nil
}

func openStore(cfg config.StoreConfig) (state.Store, error) {
	switch cfg.Type {
	case "valkey":
		slog.Info("Using Valkey Store", "address", cfg.Address)
		return state.NewValkeyStore(cfg.Address, cfg.Password)
	case "sqlite":
		slog.Info("Using SQLite Store", "path", cfg.Path)
		return state.OpenSQLite(cfg.Path)
	case "file":
		slog.Info("Using File Store", "path", cfg.Path)
		return state.NewFileStore(cfg.Path)
	default:
		slog.Info("Using Memory Store")
		return state.NewMemoryStore(), nil
	}
}

func serveMetrics(logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("Starting metrics server", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server failed", "error", err)
	}
}
