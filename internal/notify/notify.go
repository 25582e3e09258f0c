// Package notify delivers one-time login codes to users.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender delivers a short text message to a contact address.
type Sender interface {
	Send(ctx context.Context, contact, text string) error
}

// LogSender writes messages to the log instead of delivering them.
// It exposes codes in clear text and is wired only in development mode.
type LogSender struct{ log *zap.Logger }

// NewLogSender constructs a LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, contact, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("notification", zap.String("contact", contact), zap.String("text", text))
	return nil
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers messages through a bot to chats bound to contact addresses.
type Telegram struct {
	bot   botAPI
	chats map[string]int64
}

// NewTelegram connects a bot with token. chats maps a contact (phone) to a chat ID.
func NewTelegram(token string, chats map[string]int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newTelegram(bot, chats), nil
}

func newTelegram(bot botAPI, chats map[string]int64) *Telegram {
	cp := make(map[string]int64, len(chats))
	for k, v := range chats {
		cp[k] = v
	}
	return &Telegram{bot: bot, chats: cp}
}

// Send implements Sender.
func (t *Telegram) Send(ctx context.Context, contact, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, ok := t.chats[contact]
	if !ok {
		return fmt.Errorf("telegram: no chat bound to contact %s", contact)
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
