package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/ai"
	"github.com/tuanvm/billbot/internal/bot/handlers"
	"github.com/tuanvm/billbot/internal/database"
	"github.com/tuanvm/billbot/internal/repository"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	logger   *zap.Logger
	stop     func() // stops the long poll on shutdown
}

// New builds the command surface on an existing API client so the dispatch
// side can share the same bot token.
func New(api *tgbotapi.BotAPI, db *database.DB, aiClient *ai.Client, defaultTZ string, notify func(), logger *zap.Logger) *Bot {
	repos := &handlers.Repositories{
		User:     repository.NewUserRepository(db),
		Reminder: repository.NewReminderRepository(db),
		SendLog:  repository.NewSendLogRepository(db),
	}

	return &Bot{
		api:      api,
		handlers: handlers.New(api, repos, aiClient, defaultTZ, notify, logger),
		logger:   logger,
		stop:     api.StopReceivingUpdates,
	}
}

func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("authorized", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return b.run(ctx, b.api.GetUpdatesChan(u))
}

func (b *Bot) run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			b.stop()
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
