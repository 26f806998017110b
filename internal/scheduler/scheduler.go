// Package scheduler drives the periodic diff-and-notify cycle.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"lineup_bot/internal/lineup"
	"lineup_bot/internal/model"
	"lineup_bot/internal/storage"
)

// Sender is the interface for delivering band lists to a chat.
type Sender interface {
	SendBands(chatID int64, bands []model.Band)
}

// Scheduler periodically checks the lineup and notifies every subscriber of
// newly announced bands.
type Scheduler struct {
	store  storage.Storage
	lineup *lineup.Service
	sender Sender
	log    *slog.Logger
	tick   time.Duration
}

// New creates a Scheduler running one cycle per tick interval.
func New(store storage.Storage, svc *lineup.Service, sender Sender, tick time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:  store,
		lineup: svc,
		sender: sender,
		log:    log,
		tick:   tick,
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled. The first
// cycle runs after one full interval, matching the hourly cadence of the
// lineup page.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

// checkAll runs one notification cycle. Subscribers are re-read from storage
// every cycle, and a failure for one subscriber never aborts the rest.
func (s *Scheduler) checkAll(ctx context.Context) {
	subs, err := s.store.ListSubscribers(ctx)
	if err != nil {
		s.log.Error("list subscribers", "error", err)
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		s.notifySubscriber(ctx, sub.ChatID)
	}
}

func (s *Scheduler) notifySubscriber(ctx context.Context, chatID int64) {
	bands, err := s.lineup.Current(ctx)
	if err != nil {
		s.log.Error("fetch lineup", "chat_id", chatID, "error", err)
		return
	}

	fresh, err := s.lineup.DiffFor(ctx, chatID, bands)
	if err != nil {
		s.log.Error("diff lineup", "chat_id", chatID, "error", err)
		return
	}
	if len(fresh) == 0 {
		return
	}

	s.log.Info("notifying subscriber", "chat_id", chatID, "new_bands", len(fresh))
	s.sender.SendBands(chatID, fresh)
}
