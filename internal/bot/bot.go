package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"manga_bot/internal/config"
	"manga_bot/internal/conversation"
	"manga_bot/internal/model"
	"manga_bot/internal/notifier"
	"manga_bot/internal/storage"
)

// maxInFlight bounds the number of updates handled concurrently.
const maxInFlight = 16

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Refresher dispatches notifications for a single user on demand.
type Refresher interface {
	DispatchUser(ctx context.Context, ownerID int64) (notifier.Report, error)
}

// Bot is the Telegram bot that drives the conversation and sends notifications.
type Bot struct {
	api       telegramAPI
	store     storage.Storage
	states    conversation.Store
	refresher Refresher
	cfg       *config.Config
	log       *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, store, cfg, log), nil
}

func newBot(api telegramAPI, store storage.Storage, cfg *config.Config, log *slog.Logger) *Bot {
	b := &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
		sem:   make(chan struct{}, maxInFlight),
	}
	b.states = conversation.NewMemory(cfg.StateTimeout, b.onStateExpired)
	return b
}

// SetRefresher wires the on-demand dispatcher used by the refresh action.
func (b *Bot) SetRefresher(r Refresher) {
	b.refresher = r
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled
// and every in-flight handler has returned.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			}
			b.wg.Add(1)
			go func() {
				defer func() {
					<-b.sem
					b.wg.Done()
				}()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		if cb.From != nil && !b.cfg.IsUserAllowed(cb.From.ID) {
			b.answerCallback(cb.ID, accessDeniedText)
			return
		}
		b.handleCallback(ctx, cb)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.From != nil && !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(msg.Chat.ID, accessDeniedText)
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Text == "" {
		return
	}
	b.handleText(ctx, msg)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// SendPhoto sends a photo with a Markdown caption. When no cover image is
// known the caption is sent as a plain Markdown message.
func (b *Bot) SendPhoto(chatID int64, photo, caption string) error {
	var c tgbotapi.Chattable
	if photo == "" || photo == model.NoImage {
		msg := tgbotapi.NewMessage(chatID, caption)
		msg.ParseMode = tgbotapi.ModeMarkdown
		c = msg
	} else {
		p := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photo))
		p.Caption = caption
		p.ParseMode = tgbotapi.ModeMarkdown
		c = p
	}
	if _, err := b.api.Send(c); err != nil {
		return fmt.Errorf("send photo to %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Error("answer callback", "callback_id", id, "error", err)
	}
}

func (b *Bot) onStateExpired(state model.ConversationState) {
	b.log.Info("conversation timed out", "chat_id", state.ChatID, "mode", state.Mode.String())
	b.reply(state.ChatID, timeoutText)
}
