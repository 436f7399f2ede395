// Package notify delivers emitted alerts to Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"crypto-manipulation-monitor/models"
)

// TelegramNotifier pushes alert summaries to a chat
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a notifier for the given bot token and chat
func NewTelegram(token string, chatID int64, logger zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// Publish sends one alert to the configured chat
func (n *TelegramNotifier) Publish(ctx context.Context, a *models.ManipulationAlert) error {
	text := formatAlert(a)

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	n.logger.Debug().Str("symbol", a.Symbol).Str("severity", a.Severity).Msg("alert delivered")
	return nil
}

func formatAlert(a *models.ManipulationAlert) string {
	return fmt.Sprintf(
		"*%s manipulation alert* — %s\n"+
			"Type: `%s`\n"+
			"Confidence: %.0f%%\n"+
			"%s\n"+
			"_%s_",
		a.Severity, a.Symbol,
		a.ManipulationType,
		a.ConfidenceScore*100,
		a.Description,
		time.Unix(a.Timestamp, 0).UTC().Format(time.RFC3339),
	)
}
