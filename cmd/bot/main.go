package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/ai"
	"github.com/tuanvm/billbot/internal/bot"
	"github.com/tuanvm/billbot/internal/config"
	"github.com/tuanvm/billbot/internal/database"
	"github.com/tuanvm/billbot/internal/metrics"
	"github.com/tuanvm/billbot/internal/repository"
	"github.com/tuanvm/billbot/internal/scheduler"
	"github.com/tuanvm/billbot/internal/telegram"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.DatabaseURI == "" {
		logger.Fatal("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		logger.Fatal("TELEGRAM_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}
	logger.Info("migrations applied")

	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		logger.Info("ai client initialized", zap.String("model", cfg.AIModel))
	} else {
		logger.Info("ai client not configured, natural language input disabled")
	}

	api, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("create telegram api", zap.Error(err))
	}

	window, err := scheduler.NewWindow(cfg.WindowStart, cfg.WindowEnd, cfg.WindowTimezone, cfg.AlwaysOn)
	if err != nil {
		logger.Fatal("configure active window", zap.Error(err))
	}

	sched := scheduler.New(
		telegram.NewSender(api),
		repository.NewReminderRepository(db),
		repository.NewUserRepository(db),
		repository.NewSendLogRepository(db),
		window,
		scheduler.Options{
			Interval:        cfg.CheckInterval,
			Concurrency:     cfg.SendConcurrency,
			DefaultTimezone: cfg.DefaultTimezone,
		},
		logger.Named("scheduler"),
	)
	go sched.Start(ctx)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()

	b := bot.New(api, db, aiClient, cfg.DefaultTimezone, sched.Notify, logger.Named("bot"))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")

		drainCtx, drain := context.WithTimeout(context.Background(), 5*time.Second)
		defer drain()
		if err := metricsSrv.Shutdown(drainCtx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
		cancel()
	}()

	logger.Info("starting bot")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}
