package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/models"
)

func (h *Handlers) handleStart(_ context.Context, msg *tgbotapi.Message, user *models.User) {
	text := fmt.Sprintf(`👋 Hi %s!

I remind you about your bills so you never pay late.

Set up a reminder with /new, for example:
• /new 09:00 monthly 25 electricity bill
• /new 20:00 weekly friday put out the trash

Or just tell me in plain language:
• "remind me about rent on the 1st at 8am"

Your timezone is *%s* (change it with /settimezone).
Use /help for all commands.`, msg.From.FirstName, user.Timezone)
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleSetTimezone(ctx context.Context, msg *tgbotapi.Message) {
	zone := strings.TrimSpace(msg.CommandArguments())
	if zone == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /settimezone <IANA zone>\nExample: /settimezone Europe/Berlin")
		return
	}

	if _, err := time.LoadLocation(zone); err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Unknown timezone %q. Use an IANA name like Asia/Ho_Chi_Minh or America/New_York.", zone))
		return
	}

	if err := h.repos.User.SetTimezone(ctx, msg.From.ID, zone); err != nil {
		h.logger.Error("set timezone failed", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not save the timezone, please try again later.")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🌍 Timezone set to *%s*. New reminders will use it; existing ones keep the zone they were created with.", zone))
}
