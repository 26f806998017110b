package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"lineup_bot/internal/lineup"
	"lineup_bot/internal/model"
	"lineup_bot/internal/storage"
)

// --- mocks ---

type sentMsg struct {
	ChatID    int64
	Text      string
	ParseMode string
	Silent    bool
}

type mockAPI struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, sentMsg{
			ChatID:    msg.ChatID,
			Text:      msg.Text,
			ParseMode: msg.ParseMode,
			Silent:    msg.DisableNotification,
		})
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) messages() []sentMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]sentMsg, len(m.sent))
	copy(cp, m.sent)
	return cp
}

type fakeScraper struct {
	bands []model.Band
	err   error
}

func (f *fakeScraper) Scrape(_ context.Context) ([]model.Band, error) {
	return f.bands, f.err
}

// --- helpers ---

func newTestBot(t *testing.T, scraper *fakeScraper) (*Bot, *mockAPI, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := &mockAPI{}
	b := &Bot{
		api:    api,
		lineup: lineup.New(store, scraper, time.Hour, log),
		log:    log,
	}
	return b, api, store
}

func command(chatID int64, cmd string) *tgbotapi.Message {
	text := "/" + cmd
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}
}

// --- tests ---

func TestHandleStatus(t *testing.T) {
	b, api, _ := newTestBot(t, &fakeScraper{})

	b.handleCommand(context.Background(), command(1234, "status"))

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if diff := cmp.Diff("[1234] Ok", msgs[0].Text); diff != "" {
		t.Errorf("status reply mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleNewDeliversOnlyUnseenBands(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{bands: []model.Band{
		{Name: "Band A", URL: "u1"},
		{Name: "Band B", URL: "u2"},
	}}
	b, api, store := newTestBot(t, scraper)

	if err := store.ReplaceKnownBands(ctx, 42, []model.Band{{Name: "Band A", URL: "u1"}}); err != nil {
		t.Fatalf("seed known bands: %v", err)
	}

	b.handleCommand(ctx, command(42, "new"))

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	want := sentMsg{ChatID: 42, Text: "[Band B](u2)", ParseMode: tgbotapi.ModeMarkdown}
	if diff := cmp.Diff(want, msgs[0]); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}

	known, err := store.KnownBands(ctx, 42)
	if err != nil {
		t.Fatalf("known bands: %v", err)
	}
	wantKnown := []model.Band{
		{Name: "Band A", URL: "u1"},
		{Name: "Band B", URL: "u2"},
	}
	if diff := cmp.Diff(wantKnown, known); diff != "" {
		t.Errorf("known set mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleNewWithNothingNew(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{bands: []model.Band{{Name: "Band A", URL: "u1"}}}
	b, api, store := newTestBot(t, scraper)

	if err := store.ReplaceKnownBands(ctx, 42, scraper.bands); err != nil {
		t.Fatalf("seed known bands: %v", err)
	}

	b.handleCommand(ctx, command(42, "new"))

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if diff := cmp.Diff("No new announcements.", msgs[0].Text); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
	if msgs[0].ParseMode != "" {
		t.Errorf("literal reply should not use markdown, got %q", msgs[0].ParseMode)
	}
}

func TestHandleBandsSortsAndMarksDelivered(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{bands: []model.Band{
		{Name: "Zebrahead", URL: "u3"},
		{Name: "Airbourne", URL: "u1"},
		{Name: "Muse", URL: "u2"},
	}}
	b, api, store := newTestBot(t, scraper)

	b.handleCommand(ctx, command(7, "bands"))

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	want := "[Airbourne](u1)\n[Muse](u2)\n[Zebrahead](u3)"
	if diff := cmp.Diff(want, msgs[0].Text); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}

	// A later /new must not repeat what /bands just showed.
	known, err := store.KnownBands(ctx, 7)
	if err != nil {
		t.Fatalf("known bands: %v", err)
	}
	if len(known) != 3 {
		t.Errorf("expected 3 known bands after /bands, got %d", len(known))
	}
}

func TestHandleBandsFetchFailure(t *testing.T) {
	scraper := &fakeScraper{err: io.ErrUnexpectedEOF}
	b, api, _ := newTestBot(t, scraper)

	b.handleCommand(context.Background(), command(7, "bands"))

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Failed to fetch") {
		t.Errorf("expected failure reply, got %q", msgs[0].Text)
	}
}

func TestHandleStartResetsKnownSet(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{bands: []model.Band{{Name: "Band A", URL: "u1"}}}
	b, api, store := newTestBot(t, scraper)

	if err := store.ReplaceKnownBands(ctx, 42, scraper.bands); err != nil {
		t.Fatalf("seed known bands: %v", err)
	}

	b.handleCommand(ctx, command(42, "start"))

	known, err := store.KnownBands(ctx, 42)
	if err != nil {
		t.Fatalf("known bands: %v", err)
	}
	if len(known) != 0 {
		t.Errorf("expected empty known set after /start, got %v", known)
	}

	// After the reset, everything currently announced is new again.
	api.mu.Lock()
	api.sent = nil
	api.mu.Unlock()

	b.handleCommand(ctx, command(42, "new"))
	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if diff := cmp.Diff("[Band A](u1)", msgs[0].Text); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestSendBandsChunksLongLists(t *testing.T) {
	b, api, _ := newTestBot(t, &fakeScraper{})

	var bands []model.Band
	for i := 0; i < 200; i++ {
		bands = append(bands, model.Band{
			Name: "Band " + strings.Repeat("x", 20) + string(rune('A'+i%26)),
			URL:  "https://example.com/" + strings.Repeat("y", 30),
		})
	}

	b.SendBands(99, bands)

	msgs := api.messages()
	if len(msgs) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(msgs))
	}
	for i, m := range msgs {
		if len(m.Text) > maxMessageLen {
			t.Errorf("chunk %d exceeds message limit: %d chars", i, len(m.Text))
		}
		wantSilent := i > 0
		if m.Silent != wantSilent {
			t.Errorf("chunk %d: silent = %v, want %v", i, m.Silent, wantSilent)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	b, api, _ := newTestBot(t, &fakeScraper{})

	b.handleCommand(context.Background(), command(5, "frobnicate"))

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Unknown command") {
		t.Errorf("expected unknown-command reply, got %q", msgs[0].Text)
	}
}
