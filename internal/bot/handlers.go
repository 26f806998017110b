package bot

import (
	"context"
	"fmt"
)

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	if err := b.lineup.Reset(ctx, chatID); err != nil {
		b.log.Error("reset subscriber", "chat_id", chatID, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	b.reply(chatID, `Welcome to the lineup notifier!

You are now subscribed: newly announced bands are delivered to you automatically every hour.

Quick start:
/bands — show the full current lineup
/new — show bands announced since your last check

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `/bands — full current lineup
/new — bands announced since your last check
/start — reset your announcement history
/status — check that the bot is alive`)
}

func (b *Bot) handleBands(ctx context.Context, chatID int64) {
	bands, err := b.lineup.Current(ctx)
	if err != nil {
		b.log.Error("fetch lineup", "chat_id", chatID, "error", err)
		b.reply(chatID, "Failed to fetch the lineup, please try again later.")
		return
	}

	// Showing the full lineup counts as delivery: a later /new
	// must not repeat what the subscriber just saw.
	if err := b.lineup.MarkDelivered(ctx, chatID, bands); err != nil {
		b.log.Error("mark delivered", "chat_id", chatID, "error", err)
	}

	b.SendBands(chatID, bands)
}

func (b *Bot) handleNew(ctx context.Context, chatID int64) {
	bands, err := b.lineup.Current(ctx)
	if err != nil {
		b.log.Error("fetch lineup", "chat_id", chatID, "error", err)
		b.reply(chatID, "Failed to fetch the lineup, please try again later.")
		return
	}

	fresh, err := b.lineup.DiffFor(ctx, chatID, bands)
	if err != nil {
		b.log.Error("diff lineup", "chat_id", chatID, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	b.SendBands(chatID, fresh)
}

func (b *Bot) handleStatus(chatID int64) {
	b.reply(chatID, fmt.Sprintf("[%d] Ok", chatID))
}
