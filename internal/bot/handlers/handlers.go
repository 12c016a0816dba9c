package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/ai"
	"github.com/tuanvm/billbot/internal/repository"
)

type Repositories struct {
	User     *repository.UserRepository
	Reminder *repository.ReminderRepository
	SendLog  *repository.SendLogRepository
}

type Handlers struct {
	api       *tgbotapi.BotAPI
	repos     *Repositories
	ai        *ai.Client
	logger    *zap.Logger
	defaultTZ string
	notify    func() // wakes the dispatch loop after a write
}

func New(api *tgbotapi.BotAPI, repos *Repositories, aiClient *ai.Client, defaultTZ string, notify func(), logger *zap.Logger) *Handlers {
	return &Handlers{
		api:       api,
		repos:     repos,
		ai:        aiClient,
		logger:    logger,
		defaultTZ: defaultTZ,
		notify:    notify,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	// Ensure user exists
	user, err := h.repos.User.GetOrCreate(ctx, msg.From.ID, msg.From.UserName, h.defaultTZ)
	if err != nil {
		h.logger.Error("get/create user failed", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg, user)
	case "help":
		h.handleHelp(ctx, msg)
	case "new":
		h.handleNew(ctx, msg, user)
	case "list":
		h.handleList(ctx, msg)
	case "delete":
		h.handleDelete(ctx, msg)
	case "toggle":
		h.handleToggle(ctx, msg)
	case "history":
		h.handleHistory(ctx, msg)
	case "settimezone":
		h.handleSetTimezone(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Unknown command, use /help to see what I can do.")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := h.repos.User.GetOrCreate(ctx, msg.From.ID, msg.From.UserName, h.defaultTZ)
	if err != nil {
		h.logger.Error("get/create user failed", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}

	h.handleAIMessage(ctx, msg, user)
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Warn("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) handleHelp(_ context.Context, msg *tgbotapi.Message) {
	text := `📖 *Commands*

*Reminders*
/new <HH:MM> daily <bill> - remind every day
/new <HH:MM> weekly <weekday> <bill> - remind every week
/new <HH:MM> monthly <day 1-31> <bill> - remind every month
/new <HH:MM> once <YYYY-MM-DD> <bill> - remind once
/list - show your reminders
/delete <id> - remove a reminder
/toggle <id> - pause or resume a reminder
/history <id> - recent sends for a reminder

*Settings*
/settimezone <IANA zone> - e.g. /settimezone Asia/Ho_Chi_Minh

💡 You can also just tell me in plain language, e.g.
"remind me about the electricity bill on the 25th at 9am"`
	h.sendMessage(msg.Chat.ID, text)
}

func statusIcon(active bool) string {
	if active {
		return "✅"
	}
	return "⏸"
}

func errorReply(err error) string {
	return fmt.Sprintf("Sorry, that did not work: %v", err)
}
