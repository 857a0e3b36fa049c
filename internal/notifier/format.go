package notifier

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"manga_bot/internal/model"
)

// FormatCaption builds the Markdown caption of a chapter notification.
func FormatCaption(title string, r model.ScanResult) string {
	return fmt.Sprintf("*%s*\n%s\n%s\n[Read chapter](%s)",
		escape(title),
		escape(r.ChapterLabel),
		escape(r.RelativeTimeText),
		linkTarget(r.ChapterURL),
	)
}

// linkTarget percent-encodes ")" so the URL cannot close the Markdown link early.
func linkTarget(u string) string {
	return strings.ReplaceAll(u, ")", "%29")
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
