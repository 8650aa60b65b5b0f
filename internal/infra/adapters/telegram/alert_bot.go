package telegram

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"adtopia/internal/domain/ports/adapter"
)

// Telegram rejects longer messages.
const maxMessageRunes = 4096

var _ adapter.AlertNotifier = (*AlertBot)(nil)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AlertBot posts operational alerts (paid purchases, sync failures) into one ops chat.
type AlertBot struct {
	bot    sender
	chatID int64
	log    zerolog.Logger
}

func NewAlertBot(token string, chatID int64, logger *zerolog.Logger) (*AlertBot, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram: token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newAlertBot(bot, chatID, logger), nil
}

func newAlertBot(s sender, chatID int64, logger *zerolog.Logger) *AlertBot {
	return &AlertBot{
		bot:    s,
		chatID: chatID,
		log:    logger.With().Str("component", "telegram_alerts").Logger(),
	}
}

func (a *AlertBot) Alert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		r := []rune(text)
		text = string(r[:maxMessageRunes-1]) + "…"
	}
	msg := tgbotapi.NewMessage(a.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := a.bot.Send(msg); err != nil {
		a.log.Warn().Err(err).Msg("alert not delivered")
		return err
	}
	return nil
}
