package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/models"
	"github.com/tuanvm/billbot/internal/schedule"
)

const newUsage = `Usage: /new <HH:MM> <daily|weekly|monthly|once> [day] <bill>
Examples:
/new 09:00 daily water bill
/new 09:00 weekly monday rent
/new 09:00 monthly 25 electricity
/new 09:00 once 2026-09-15 road tax`

func (h *Handlers) handleNew(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 3 {
		h.sendMessage(msg.Chat.ID, newUsage)
		return
	}

	timeOfDay := args[0]
	frequency := strings.ToLower(args[1])

	// daily takes no day anchor, the other frequencies take exactly one
	day := ""
	rest := args[2:]
	if frequency != string(schedule.FreqDaily) {
		day = args[2]
		rest = args[3:]
	}
	text := strings.Join(rest, " ")
	if text == "" {
		h.sendMessage(msg.Chat.ID, newUsage)
		return
	}

	spec, err := schedule.Parse(frequency, day, timeOfDay)
	if err != nil {
		h.sendMessage(msg.Chat.ID, errorReply(err))
		return
	}

	reminder, err := h.createReminder(ctx, user, text, spec)
	if err != nil {
		h.logger.Error("create reminder failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not save the reminder, please try again later.")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("⏰ Reminder *%d* set: %s, %s (%s)",
		reminder.ReminderID, reminder.Text, spec.Describe(), reminder.Timezone))
}

// createReminder persists a reminder in the user's timezone and pokes the
// dispatch loop so a reminder due this minute does not wait a full tick.
func (h *Handlers) createReminder(ctx context.Context, user *models.User, text string, spec schedule.Spec) (*models.Reminder, error) {
	reminder := &models.Reminder{
		UserID:   user.UserID,
		Text:     text,
		Schedule: spec,
		Timezone: user.Timezone,
		Active:   true,
	}
	if err := h.repos.Reminder.Create(ctx, reminder); err != nil {
		return nil, err
	}
	if h.notify != nil {
		h.notify()
	}
	return reminder, nil
}

func (h *Handlers) handleList(ctx context.Context, msg *tgbotapi.Message) {
	reminders, err := h.repos.Reminder.ListByUser(ctx, msg.From.ID)
	if err != nil {
		h.logger.Error("list reminders failed", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not load your reminders, please try again later.")
		return
	}

	if len(reminders) == 0 {
		h.sendMessage(msg.Chat.ID, "⏰ No reminders yet. Create one with /new.")
		return
	}

	var sb strings.Builder
	sb.WriteString("⏰ *Your reminders*\n\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("%s *%d.* %s\n", statusIcon(r.Active), r.ReminderID, r.Text))
		sb.WriteString(fmt.Sprintf("   📅 %s (%s)\n", r.Schedule.Describe(), r.Timezone))
		if r.LastSent != nil {
			sb.WriteString(fmt.Sprintf("   📤 last sent %s\n", r.LastSent.UTC().Format("2006-01-02 15:04 MST")))
		}
		sb.WriteString("\n")
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleDelete(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := h.parseID(msg, "Usage: /delete <id>")
	if !ok {
		return
	}

	if err := h.repos.Reminder.Delete(ctx, id, msg.From.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("Reminder %d not found.", id))
			return
		}
		h.logger.Error("delete reminder failed", zap.Int64("reminder_id", id), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not delete the reminder, please try again later.")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Reminder %d deleted.", id))
}

func (h *Handlers) handleToggle(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := h.parseID(msg, "Usage: /toggle <id>")
	if !ok {
		return
	}

	reminder, err := h.repos.Reminder.GetByID(ctx, id, msg.From.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("Reminder %d not found.", id))
			return
		}
		h.logger.Error("get reminder failed", zap.Int64("reminder_id", id), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not load the reminder, please try again later.")
		return
	}

	active := !reminder.Active
	if err := h.repos.Reminder.SetActive(ctx, id, msg.From.ID, active); err != nil {
		h.logger.Error("toggle reminder failed", zap.Int64("reminder_id", id), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not update the reminder, please try again later.")
		return
	}
	if active && h.notify != nil {
		h.notify()
	}

	if active {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("▶️ Reminder %d resumed.", id))
	} else {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("⏸ Reminder %d paused.", id))
	}
}

func (h *Handlers) handleHistory(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := h.parseID(msg, "Usage: /history <id>")
	if !ok {
		return
	}

	// Ownership check: the send log itself is not scoped by user.
	reminder, err := h.repos.Reminder.GetByID(ctx, id, msg.From.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("Reminder %d not found.", id))
			return
		}
		h.logger.Error("get reminder failed", zap.Int64("reminder_id", id), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not load the reminder, please try again later.")
		return
	}

	entries, err := h.repos.SendLog.History(ctx, id, 10)
	if err != nil {
		h.logger.Error("send history failed", zap.Int64("reminder_id", id), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not load the history, please try again later.")
		return
	}

	if len(entries) == 0 {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("📤 No sends yet for *%s*.", reminder.Text))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📤 *Recent sends for %s*\n\n", reminder.Text))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("• %s\n", e.SentAt.UTC().Format("2006-01-02 15:04 MST")))
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) parseID(msg *tgbotapi.Message, usage string) (int64, bool) {
	arg := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		h.sendMessage(msg.Chat.ID, usage)
		return 0, false
	}
	return id, true
}
