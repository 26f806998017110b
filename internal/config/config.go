// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	LineupURL        string
	CheckInterval    time.Duration
	SnapshotTTL      time.Duration
	LegacyDataDir    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	lineupURL := os.Getenv("LINEUP_URL")
	if lineupURL == "" {
		lineupURL = "https://rock-am-ring.de/lineup"
	}

	checkInterval, err := secondsEnv("CHECK_INTERVAL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}

	snapshotTTL, err := secondsEnv("SNAPSHOT_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		LineupURL:        lineupURL,
		CheckInterval:    checkInterval,
		SnapshotTTL:      snapshotTTL,
		LegacyDataDir:    os.Getenv("LEGACY_DATA_DIR"),
	}, nil
}

func secondsEnv(key string, def int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def) * time.Second, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 1 {
		return 0, fmt.Errorf("%s must be a positive number of seconds, got %q", key, raw)
	}
	return time.Duration(secs) * time.Second, nil
}
