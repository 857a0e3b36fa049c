package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"manga_bot/internal/model"
)

const (
	labelAdd     = "Add manga"
	labelList    = "My manga list"
	labelDelete  = "Delete manga"
	labelRefresh = "Check for updates"

	welcomeText       = "Hi, I'm your manga bot.\nChoose one of the options:"
	welcomeBackText   = "Welcome back to your manga bot.\nChoose one of the options:"
	addPromptText     = "Send the manga title. It must match the title on [the site](%s).\nExample: Solo Leveling"
	deletePromptText  = "To delete, send the manga title exactly as it is written in your list."
	usageText         = "*Start talking to the bot:* /start"
	timeoutText       = "Time is up. Please try again."
	unknownChoiceText = "Unknown choice"
	accessDeniedText  = "Access denied."
	noUpdatesText     = "No new chapters in the last hour."
)

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelAdd, actionAdd),
			tgbotapi.NewInlineKeyboardButtonData(labelList, actionList),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelDelete, actionDelete),
			tgbotapi.NewInlineKeyboardButtonData(labelRefresh, actionRefresh),
		),
	)
}

// FormatTitleList formats the titles a user tracks for display.
func FormatTitleList(titles []model.TrackedTitle) string {
	if len(titles) == 0 {
		return "Your list is empty. Use \"" + labelAdd + "\" to track a title."
	}
	var b strings.Builder
	b.WriteString("Your manga list:\n")
	for _, t := range titles {
		b.WriteString(t.Title)
		b.WriteString("\n")
	}
	return b.String()
}
