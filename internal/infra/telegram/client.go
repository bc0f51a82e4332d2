// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// maxMessageRunes stays under Telegram's 4096 character limit for one message.
const maxMessageRunes = 4000

const truncatedSuffix = "\n... (truncated, see logs)"

// ChatReporter implements the Reporter interface by posting to one chat with telebot.
type ChatReporter struct {
	bot    *telebot.Bot
	chatID int64
}

func NewChatReporter(b *telebot.Bot, chatID int64) *ChatReporter {
	return &ChatReporter{bot: b, chatID: chatID}
}

func (r *ChatReporter) Report(text string) error {
	_, err := r.bot.Send(telebot.ChatID(r.chatID), truncate(text), &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return text
	}
	keep := maxMessageRunes - len([]rune(truncatedSuffix))
	return string(runes[:keep]) + truncatedSuffix
}
