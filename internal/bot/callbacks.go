package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"manga_bot/internal/model"
)

const (
	actionAdd     = "action_add"
	actionList    = "action_list"
	actionDelete  = "action_delete"
	actionRefresh = "action_refresh"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	attrs := []any{"action", cb.Data, "chat_id", chatID}
	if cb.From != nil {
		attrs = append(attrs, "user_id", cb.From.ID, "username", cb.From.UserName)
	}
	b.log.Info("callback", attrs...)

	switch cb.Data {
	case actionAdd:
		b.answerCallback(cb.ID, labelAdd)
		b.states.Enter(chatID, model.ModeAwaitingAdd)
		b.replyMarkdown(chatID, fmt.Sprintf(addPromptText, b.cfg.SourceURL))
	case actionList:
		b.answerCallback(cb.ID, labelList)
		b.handleList(ctx, chatID)
	case actionDelete:
		b.answerCallback(cb.ID, labelDelete)
		b.states.Enter(chatID, model.ModeAwaitingDelete)
		b.reply(chatID, deletePromptText)
	case actionRefresh:
		b.answerCallback(cb.ID, labelRefresh)
		b.handleRefresh(ctx, chatID)
	default:
		b.answerCallback(cb.ID, unknownChoiceText)
	}
}
