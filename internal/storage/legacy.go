package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"lineup_bot/internal/model"
)

// The original bot kept its state in flat files: a "latest" snapshot file
// whose first line is an HH:MM:SS wall-clock timestamp followed by one
// canonical band line per row, and one "bands_<chat id>" file per subscriber.

const legacySnapshotFile = "latest"

var legacySubscriberRe = regexp.MustCompile(`^bands_(-?\d+)$`)

// ImportLegacy loads old flat-file state from dir into store. The import is
// skipped when the store already holds any data, so leaving the directory
// configured across restarts is harmless. Malformed lines and files that do
// not belong to the old layout are skipped.
func ImportLegacy(ctx context.Context, store Storage, dir string, log *slog.Logger) error {
	subs, err := store.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if _, snapErr := store.LoadSnapshot(ctx); len(subs) > 0 || snapErr == nil {
		log.Info("skipping legacy import, store is not empty", "dir", dir)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("no legacy data directory", "dir", dir)
			return nil
		}
		return fmt.Errorf("read legacy dir: %w", err)
	}

	if snap, err := readLegacySnapshot(filepath.Join(dir, legacySnapshotFile), time.Now()); err != nil {
		log.Warn("read legacy snapshot", "error", err)
	} else if err := store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	} else {
		log.Info("imported legacy snapshot", "bands", len(snap.Bands))
	}

	imported := 0
	for _, entry := range entries {
		m := legacySubscriberRe.FindStringSubmatch(entry.Name())
		if m == nil || entry.IsDir() {
			continue
		}
		chatID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		bands, err := readBandLines(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warn("read legacy subscriber file", "file", entry.Name(), "error", err)
			continue
		}
		if err := store.ReplaceKnownBands(ctx, chatID, bands); err != nil {
			return fmt.Errorf("import subscriber %d: %w", chatID, err)
		}
		imported++
	}

	log.Info("legacy import complete", "subscribers", imported)
	return nil
}

// readLegacySnapshot parses the old "latest" file. The timestamp only carries
// a time of day, so it is anchored to the current date; a time of day still
// ahead of now must be from the previous day.
func readLegacySnapshot(path string, now time.Time) (*model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, fmt.Errorf("empty snapshot file %s", path)
	}
	clock, err := time.Parse("15:04:05", sc.Text())
	if err != nil {
		return nil, fmt.Errorf("parse snapshot timestamp: %w", err)
	}
	fetchedAt := time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location())
	if fetchedAt.After(now) {
		fetchedAt = fetchedAt.Add(-24 * time.Hour)
	}

	var bands []model.Band
	for sc.Scan() {
		band, err := model.ParseLine(sc.Text())
		if err != nil {
			continue
		}
		bands = append(bands, band)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &model.Snapshot{FetchedAt: fetchedAt, Bands: bands}, nil
}

func readBandLines(path string) ([]model.Band, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var bands []model.Band
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		band, err := model.ParseLine(sc.Text())
		if err != nil {
			continue
		}
		bands = append(bands, band)
	}
	return bands, sc.Err()
}
