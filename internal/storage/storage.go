// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"lineup_bot/internal/model"
)

// ErrNoSnapshot is returned by LoadSnapshot when no lineup snapshot has been
// persisted yet. Callers treat it as a cache miss, not a failure.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Storage is the interface for all persistence operations.
//
// Known-band state is always replaced wholesale: there is no append or merge,
// so a subscriber's persisted set is exactly the last snapshot delivered to it.
type Storage interface {
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)

	ListSubscribers(ctx context.Context) ([]model.Subscriber, error)
	KnownBands(ctx context.Context, chatID int64) ([]model.Band, error)
	ReplaceKnownBands(ctx context.Context, chatID int64, bands []model.Band) error

	Close() error
}
