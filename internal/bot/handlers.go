package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"manga_bot/internal/model"
	"manga_bot/internal/storage"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(ctx, msg)
	default:
		b.handleText(ctx, msg)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.states.Reset(chatID)

	name := ""
	if msg.From != nil {
		name = msg.From.String()
	}

	text := welcomeBackText
	if _, err := b.store.GetUser(ctx, chatID); errors.Is(err, storage.ErrNotFound) {
		text = welcomeText
	} else if err != nil {
		b.log.Error("get user", "chat_id", chatID, "error", err)
		return
	}

	if err := b.store.UpsertUser(ctx, chatID, name); err != nil {
		b.log.Error("upsert user", "chat_id", chatID, "error", err)
		return
	}
	if text == welcomeText {
		b.log.Info("user registered", "chat_id", chatID, "name", name)
	}

	menu := tgbotapi.NewMessage(chatID, text)
	menu.ReplyMarkup = menuKeyboard()
	if _, err := b.api.Send(menu); err != nil {
		b.log.Error("send menu", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	state := b.states.Take(chatID)
	switch state.Mode {
	case model.ModeAwaitingAdd:
		b.completeAdd(ctx, chatID, msg.Text)
	case model.ModeAwaitingDelete:
		b.completeDelete(ctx, chatID, msg.Text)
	default:
		if pending := b.states.Pending(); pending > 0 {
			b.log.Debug("ignoring idle message while other chats are pending",
				"chat_id", chatID, "pending", pending)
			return
		}
		b.replyMarkdown(chatID, usageText)
	}
}

func (b *Bot) completeAdd(ctx context.Context, chatID int64, text string) {
	title, err := ParseTitle(text)
	if err != nil {
		b.states.Enter(chatID, model.ModeAwaitingAdd)
		b.reply(chatID, fmt.Sprintf("%v. Please send the title again.", err))
		return
	}

	if err := b.store.AddTitle(ctx, chatID, title); err != nil {
		b.log.Error("add title", "chat_id", chatID, "title", title, "error", err)
		return
	}

	b.log.Info("title added", "chat_id", chatID, "title", title)
	b.reply(chatID, fmt.Sprintf("Manga '%s' added to your list.", title))
}

func (b *Bot) completeDelete(ctx context.Context, chatID int64, text string) {
	title, err := ParseTitle(text)
	if err != nil {
		b.states.Enter(chatID, model.ModeAwaitingDelete)
		b.reply(chatID, fmt.Sprintf("%v. Please send the title again.", err))
		return
	}

	removed, err := b.store.RemoveTitle(ctx, chatID, title)
	if err != nil {
		b.log.Error("remove title", "chat_id", chatID, "title", title, "error", err)
		return
	}

	if !removed {
		b.reply(chatID, fmt.Sprintf("Manga '%s' is not in your list.", title))
		return
	}
	b.log.Info("title removed", "chat_id", chatID, "title", title)
	b.reply(chatID, fmt.Sprintf("Manga '%s' was removed from your list.", title))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	titles, err := b.store.ListTitles(ctx, chatID)
	if err != nil {
		b.log.Error("list titles", "chat_id", chatID, "error", err)
		return
	}
	b.reply(chatID, FormatTitleList(titles))
}

func (b *Bot) handleRefresh(ctx context.Context, chatID int64) {
	if b.refresher == nil {
		return
	}
	report, err := b.refresher.DispatchUser(ctx, chatID)
	if err != nil {
		b.log.Error("refresh", "chat_id", chatID, "error", err)
		return
	}
	b.log.Info("refresh finished",
		"chat_id", chatID,
		"titles", report.Titles,
		"sent", report.Sent,
		"failed", report.Failed,
	)
	if report.Sent == 0 && report.Failed == 0 {
		b.reply(chatID, noUpdatesText)
	}
}
