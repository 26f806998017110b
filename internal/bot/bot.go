// Package bot implements the Telegram command surface and message delivery.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lineup_bot/internal/lineup"
	"lineup_bot/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles user commands and delivers
// announcement notifications.
type Bot struct {
	api    telegramAPI
	lineup *lineup.Service
	log    *slog.Logger
}

// New creates a Bot with the given Telegram token.
func New(token string, svc *lineup.Service, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:    api,
		lineup: svc,
		log:    log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendBands delivers a band list to a chat: sorted by name, rendered in the
// canonical form, and split into Telegram-sized chunks. Only the first chunk
// triggers an audible notification; an empty list sends a fixed literal
// instead.
func (b *Bot) SendBands(chatID int64, bands []model.Band) {
	if len(bands) == 0 {
		b.reply(chatID, "No new announcements.")
		return
	}

	sorted := make([]model.Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	lines := make([]string, len(sorted))
	for i, band := range sorted {
		lines[i] = band.String()
	}

	for i, chunk := range SplitMessage(lines, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		msg.DisableNotification = i > 0
		b.send(msg)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	b.send(msg)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.handleHelp(chatID)
	case "bands":
		b.handleBands(ctx, chatID)
	case "new":
		b.handleNew(ctx, chatID)
	case "status":
		b.handleStatus(chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
