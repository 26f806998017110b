// Package lineup implements the snapshot cache and the per-subscriber diff
// engine, the core of the bot: it decides when the festival page is scraped
// and which bands a subscriber has not been told about yet.
package lineup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lineup_bot/internal/model"
	"lineup_bot/internal/storage"
)

// Scraper fetches the currently announced bands from the live festival page.
type Scraper interface {
	Scrape(ctx context.Context) ([]model.Band, error)
}

// Service owns the shared lineup snapshot and the per-subscriber known sets.
type Service struct {
	store   storage.Storage
	scraper Scraper
	ttl     time.Duration
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Service. ttl is the maximum snapshot age before a live
// refetch is forced.
func New(store storage.Storage, scraper Scraper, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		scraper: scraper,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
	}
}

// Current returns the announced lineup. A persisted snapshot no older than
// the TTL is served as-is; otherwise the live page is scraped and the new
// snapshot persisted. A missing or unreadable snapshot counts as a cache
// miss, a scrape failure propagates to the caller.
func (s *Service) Current(ctx context.Context) ([]model.Band, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err == nil && s.now().Sub(snap.FetchedAt) <= s.ttl {
		return snap.Bands, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNoSnapshot) {
		s.log.Warn("load snapshot", "error", err)
	}

	bands, err := s.scraper.Scrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape lineup: %w", err)
	}
	s.log.Info("scraped lineup", "bands", len(bands))

	if err := s.store.SaveSnapshot(ctx, &model.Snapshot{FetchedAt: s.now(), Bands: bands}); err != nil {
		s.log.Error("save snapshot", "error", err)
	}
	return bands, nil
}

// DiffFor returns the bands in the snapshot that chatID has not yet been
// notified about, and records the full snapshot as that subscriber's known
// set. Running it twice with the same snapshot therefore yields nothing the
// second time.
func (s *Service) DiffFor(ctx context.Context, chatID int64, bands []model.Band) ([]model.Band, error) {
	old, err := s.store.KnownBands(ctx, chatID)
	if err != nil {
		// A subscriber whose state cannot be read has no prior knowledge.
		s.log.Warn("load known bands", "chat_id", chatID, "error", err)
		old = nil
	}

	known := make(map[model.Band]struct{}, len(old))
	for _, b := range old {
		known[b] = struct{}{}
	}

	var fresh []model.Band
	for _, b := range bands {
		if _, ok := known[b]; ok {
			continue
		}
		known[b] = struct{}{}
		fresh = append(fresh, b)
	}

	if err := s.MarkDelivered(ctx, chatID, bands); err != nil {
		return nil, err
	}
	return fresh, nil
}

// MarkDelivered records the given bands as chatID's full known set.
func (s *Service) MarkDelivered(ctx context.Context, chatID int64, bands []model.Band) error {
	if err := s.store.ReplaceKnownBands(ctx, chatID, bands); err != nil {
		return fmt.Errorf("write known bands for chat %d: %w", chatID, err)
	}
	return nil
}

// Reset clears chatID's known set, so the next diff reports every announced
// band as new.
func (s *Service) Reset(ctx context.Context, chatID int64) error {
	return s.MarkDelivered(ctx, chatID, nil)
}
