package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/ai"
	"github.com/tuanvm/billbot/internal/models"
	"github.com/tuanvm/billbot/internal/schedule"
)

func (h *Handlers) handleAIMessage(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "I only understand commands right now, see /help.")
		return
	}

	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		loc = time.UTC
	}

	intent, err := h.ai.ParseIntent(ctx, msg.Text, time.Now().In(loc), user.Timezone)
	if err != nil {
		h.logger.Warn("parse intent failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Sorry, I could not understand that. Try /help for the command syntax.")
		return
	}

	h.logger.Debug("parsed intent",
		zap.Int64("user_id", user.UserID),
		zap.String("action", intent.Action),
		zap.Float64("confidence", intent.Confidence))

	if intent.Confidence < 0.5 {
		reply := intent.Reply
		if reply == "" {
			reply = "I'm not sure what you mean, could you rephrase? Or use /help for commands."
		}
		h.sendMessage(msg.Chat.ID, reply)
		return
	}

	h.executeIntent(ctx, msg, user, intent)
}

func (h *Handlers) executeIntent(ctx context.Context, msg *tgbotapi.Message, user *models.User, intent *ai.Intent) {
	switch intent.Action {
	case "create_reminder":
		h.executeCreate(ctx, msg, user, intent)

	case "list_reminders":
		h.handleList(ctx, msg)

	case "delete_reminder":
		id, err := strconv.ParseInt(strings.TrimSpace(intent.ID), 10, 64)
		if err != nil || id <= 0 {
			h.sendMessage(msg.Chat.ID, "Which reminder? Use /list to see the ids, then /delete <id>.")
			return
		}
		if err := h.repos.Reminder.Delete(ctx, id, user.UserID); err != nil {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("Could not delete reminder %d.", id))
			return
		}
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Reminder %d deleted.", id))

	case "set_timezone":
		zone := strings.TrimSpace(intent.Timezone)
		if _, err := time.LoadLocation(zone); err != nil {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("I don't know the timezone %q.", zone))
			return
		}
		if err := h.repos.User.SetTimezone(ctx, user.UserID, zone); err != nil {
			h.logger.Error("set timezone failed", zap.Int64("user_id", user.UserID), zap.Error(err))
			h.sendMessage(msg.Chat.ID, "Could not save the timezone, please try again later.")
			return
		}
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("🌍 Timezone set to *%s*.", zone))

	default:
		reply := intent.Reply
		if reply == "" {
			reply = "I can set up bill reminders for you, see /help."
		}
		h.sendMessage(msg.Chat.ID, reply)
	}
}

func (h *Handlers) executeCreate(ctx context.Context, msg *tgbotapi.Message, user *models.User, intent *ai.Intent) {
	if intent.Text == "" || intent.Time == "" || intent.Frequency == "" {
		reply := intent.Reply
		if reply == "" {
			reply = "I need a bill, a time and how often. E.g. \"remind me about rent on the 1st at 8am\"."
		}
		h.sendMessage(msg.Chat.ID, reply)
		return
	}

	spec, err := schedule.Parse(intent.Frequency, intent.Day, intent.Time)
	if err != nil {
		h.logger.Debug("intent schedule rejected", zap.Int64("user_id", user.UserID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, errorReply(err))
		return
	}

	reminder, err := h.createReminder(ctx, user, intent.Text, spec)
	if err != nil {
		h.logger.Error("create reminder failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Could not save the reminder, please try again later.")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("⏰ Reminder *%d* set: %s, %s (%s)",
		reminder.ReminderID, reminder.Text, spec.Describe(), reminder.Timezone))
}
