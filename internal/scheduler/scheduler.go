// Package scheduler runs the due-detection and dispatch engine: a single
// recurring cycle that selects the reminders due this minute and delivers
// each occurrence at most once, with the send log as the dedup authority.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/metrics"
	"github.com/tuanvm/billbot/internal/models"
)

// MessageSender is the outbound notification channel. Errors must be wrapped
// in models.ErrChannelTransient or models.ErrChannelPermanent.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

type ReminderStore interface {
	ListActive(ctx context.Context) ([]*models.Reminder, error)
	MarkSent(ctx context.Context, reminderID int64, sentAt time.Time, deactivate bool) error
	Deactivate(ctx context.Context, reminderID int64) error
}

type UserStore interface {
	List(ctx context.Context) ([]*models.User, error)
}

type SendLog interface {
	Has(ctx context.Context, reminderID int64, occurrenceID string) (bool, error)
	Append(ctx context.Context, entry models.SendLogEntry) error
}

type Options struct {
	Interval        time.Duration // cycle cadence, default 1 minute
	Concurrency     int           // dispatch worker pool size, default 4
	DefaultTimezone string        // fallback when neither reminder nor user has a zone
	Now             func() time.Time
}

type Scheduler struct {
	sender    MessageSender
	reminders ReminderStore
	users     UserStore
	sendLog   SendLog
	window    Window
	logger    *zap.Logger

	interval    time.Duration
	concurrency int
	defaultTZ   string
	now         func() time.Time
	notifyCh    chan struct{}
}

func New(sender MessageSender, reminders ReminderStore, users UserStore, sendLog SendLog, window Window, opts Options, logger *zap.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "UTC"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		sender:      sender,
		reminders:   reminders,
		users:       users,
		sendLog:     sendLog,
		window:      window,
		logger:      logger,
		interval:    opts.Interval,
		concurrency: opts.Concurrency,
		defaultTZ:   opts.DefaultTimezone,
		now:         opts.Now,
		notifyCh:    make(chan struct{}, 1),
	}
}

// Notify triggers an immediate cycle. Non-blocking if one is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("concurrency", s.concurrency))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Give startup migrations a moment before the first cycle.
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}
	s.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-s.notifyCh:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes one gated due-detection and dispatch pass. A cycle that
// fails mid-way leaves undispatched occurrences for the next one; the send
// log makes the repeat safe.
func (s *Scheduler) RunCycle(ctx context.Context) {
	now := s.now().UTC()

	if !s.window.Open(now) {
		metrics.CyclesTotal.WithLabelValues("window_closed").Inc()
		return
	}

	start := time.Now()
	due, err := s.SelectDue(ctx, now)
	if err != nil {
		metrics.RecordCycle("store_error", time.Since(start))
		s.logger.Error("due-set selection failed, cycle aborted", zap.Error(err))
		return
	}

	if len(due) == 0 {
		metrics.RecordCycle("ok", time.Since(start))
		return
	}

	report := s.Dispatch(ctx, due)
	metrics.RecordCycle("ok", time.Since(start))
	s.logger.Info("cycle complete",
		zap.Int("due", len(due)),
		zap.Int64s("sent", report.Sent),
		zap.Int64s("failed", report.Failed))
}
