package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"lineup_bot/internal/bot"
	"lineup_bot/internal/config"
	"lineup_bot/internal/lineup"
	"lineup_bot/internal/scheduler"
	"lineup_bot/internal/scraper"
	"lineup_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	if cfg.LegacyDataDir != "" {
		if err := storage.ImportLegacy(context.Background(), store, cfg.LegacyDataDir, log); err != nil {
			log.Error("import legacy data", "dir", cfg.LegacyDataDir, "error", err)
			os.Exit(1)
		}
	}

	scr, err := scraper.New(http.DefaultClient, cfg.LineupURL)
	if err != nil {
		log.Error("create scraper", "url", cfg.LineupURL, "error", err)
		os.Exit(1)
	}

	svc := lineup.New(store, scr, cfg.SnapshotTTL, log)

	b, err := bot.New(cfg.TelegramBotToken, svc, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(store, svc, b, cfg.CheckInterval, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "lineup_url", cfg.LineupURL, "check_interval", cfg.CheckInterval)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
