package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"lineup_bot/internal/model"
	"lineup_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the persisted lineup snapshot wholesale.
func (s *SQLite) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_bands`); err != nil {
		return fmt.Errorf("clear snapshot bands: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, fetched_at) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		snap.FetchedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	for i, band := range snap.Bands {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_bands (position, name, url) VALUES (?, ?, ?)`,
			i, band.Name, band.URL,
		); err != nil {
			return fmt.Errorf("insert snapshot band: %w", err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot returns the persisted lineup snapshot, or ErrNoSnapshot when
// none has been stored yet.
func (s *SQLite) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var fetchedStr string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM snapshot WHERE id = 1`).Scan(&fetchedStr)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	fetchedAt, err := time.Parse(timeLayout, fetchedStr)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at %q: %w", fetchedStr, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, url FROM snapshot_bands ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot bands: %w", err)
	}
	defer func() { _ = rows.Close() }()

	bands, err := scanBands(rows)
	if err != nil {
		return nil, err
	}
	return &model.Snapshot{FetchedAt: fetchedAt, Bands: bands}, nil
}

// ListSubscribers returns every known subscriber.
func (s *SQLite) ListSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, created_at FROM subscribers ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscriber
	for rows.Next() {
		var sub model.Subscriber
		var createdStr string
		if err := rows.Scan(&sub.ChatID, &createdStr); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		sub.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// KnownBands returns the bands last delivered to the given chat. An unknown
// chat simply has no known bands.
func (s *SQLite) KnownBands(ctx context.Context, chatID int64) ([]model.Band, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, url FROM known_bands WHERE chat_id = ? ORDER BY name, url`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query known bands: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanBands(rows)
}

// ReplaceKnownBands overwrites the known-band set of the given chat, creating
// the subscriber row on first contact.
func (s *SQLite) ReplaceKnownBands(ctx context.Context, chatID int64, bands []model.Band) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (chat_id, created_at) VALUES (?, ?)`,
		chatID, time.Now().UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("ensure subscriber: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM known_bands WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("clear known bands: %w", err)
	}
	for _, band := range bands {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO known_bands (chat_id, name, url) VALUES (?, ?, ?)`,
			chatID, band.Name, band.URL,
		); err != nil {
			return fmt.Errorf("insert known band: %w", err)
		}
	}
	return tx.Commit()
}

func scanBands(rows *sql.Rows) ([]model.Band, error) {
	var bands []model.Band
	for rows.Next() {
		var b model.Band
		if err := rows.Scan(&b.Name, &b.URL); err != nil {
			return nil, fmt.Errorf("scan band: %w", err)
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}
