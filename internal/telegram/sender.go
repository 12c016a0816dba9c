// Package telegram adapts the bot API into the dispatcher's message channel.
package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tuanvm/billbot/internal/models"
)

type Sender struct {
	api *tgbotapi.BotAPI
}

func NewSender(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

// SendMessage delivers text to the user's chat. Failures come back wrapped in
// models.ErrChannelPermanent or models.ErrChannelTransient so the dispatcher
// can decide between deactivating and retrying.
func (s *Sender) SendMessage(chatID int64, text string) error {
	if _, err := s.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return ClassifyError(err)
	}
	return nil
}

// ClassifyError splits bot API failures into permanent (the user or chat is
// gone for good) and transient (everything else: network, rate limits, 5xx).
// Unknown failures default to transient so a flaky network never deactivates
// reminders.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 403 || isPermanentMessage(apiErr.Message) {
			return fmt.Errorf("%w: %v", models.ErrChannelPermanent, err)
		}
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return fmt.Errorf("%w: %v", models.ErrChannelTransient, err)
		}
	}

	return fmt.Errorf("%w: %v", models.ErrChannelTransient, err)
}

func isPermanentMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range []string{
		"bot was blocked",
		"user is deactivated",
		"chat not found",
		"bot was kicked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
