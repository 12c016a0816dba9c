package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tuanvm/billbot/internal/metrics"
	"github.com/tuanvm/billbot/internal/models"
)

// DispatchReport summarizes one cycle's sends by reminder id.
type DispatchReport struct {
	Sent   []int64
	Failed []int64
}

// Dispatch delivers each candidate at most once: send, then conditionally
// append to the send log, then update the reminder row. Candidates are
// independent I/O, so they run on a bounded worker pool; every candidate in
// one cycle carries a distinct occurrence key, and cross-instance races on
// the same key are settled by the log's conditional append.
func (s *Scheduler) Dispatch(ctx context.Context, candidates []Candidate) DispatchReport {
	var (
		mu     sync.Mutex
		report DispatchReport
	)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			err := s.dispatchOne(ctx, c)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, c.Reminder.ReminderID)
			} else {
				report.Sent = append(report.Sent, c.Reminder.ReminderID)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Sent, func(i, j int) bool { return report.Sent[i] < report.Sent[j] })
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i] < report.Failed[j] })
	return report
}

// dispatchOne handles a single occurrence end to end. A failure here never
// touches the other candidates.
func (s *Scheduler) dispatchOne(ctx context.Context, c Candidate) error {
	r := c.Reminder

	if err := s.sender.SendMessage(r.UserID, formatNotification(r, c.LeadDays)); err != nil {
		// No log entry and no last_sent update: the occurrence stays
		// eligible while the grace window still covers it.
		if errors.Is(err, models.ErrChannelPermanent) {
			metrics.SendFailures.WithLabelValues("permanent").Inc()
			s.logger.Error("channel rejected user permanently, deactivating reminder",
				zap.Int64("reminder_id", r.ReminderID),
				zap.Int64("user_id", r.UserID),
				zap.Error(err))
			if derr := s.reminders.Deactivate(ctx, r.ReminderID); derr != nil {
				s.logger.Error("deactivate after permanent failure", zap.Int64("reminder_id", r.ReminderID), zap.Error(derr))
			}
			return err
		}
		metrics.SendFailures.WithLabelValues("transient").Inc()
		s.logger.Warn("send failed, will retry next cycle",
			zap.Int64("reminder_id", r.ReminderID),
			zap.Error(err))
		return err
	}

	sentAt := s.now().UTC()
	entry := models.SendLogEntry{
		ReminderID:   r.ReminderID,
		OccurrenceID: c.OccurrenceID,
		UserID:       r.UserID,
		SentAt:       sentAt,
	}
	if err := s.sendLog.Append(ctx, entry); err != nil {
		if errors.Is(err, models.ErrDuplicateOccurrence) {
			// Another instance logged this occurrence first. Dedup working
			// as intended; its writer owns the reminder-row update.
			metrics.DuplicateOccurrences.Inc()
			return nil
		}
		// The message went out but the log write failed. The row is the
		// dedup authority, so the occurrence stays eligible and may repeat
		// next cycle.
		metrics.SendFailures.WithLabelValues("store").Inc()
		s.logger.Error("sent but log append failed",
			zap.Int64("reminder_id", r.ReminderID),
			zap.String("occurrence_id", c.OccurrenceID),
			zap.Error(err))
		return err
	}

	// Best-effort bookkeeping: the log row above is authoritative, so a
	// failure here must not fail the dispatch. A once-reminder is retired by
	// its day-of send only; an advance notice must leave it active for the
	// notifications still ahead.
	deactivate := r.IsOnce() && c.LeadDays == 0
	if err := s.reminders.MarkSent(ctx, r.ReminderID, sentAt, deactivate); err != nil {
		s.logger.Warn("mark sent failed",
			zap.Int64("reminder_id", r.ReminderID),
			zap.Error(err))
	}

	metrics.RemindersSent.Inc()
	return nil
}

func formatNotification(r *models.Reminder, leadDays int) string {
	switch leadDays {
	case 1:
		return fmt.Sprintf("🔔 Bill due tomorrow: %s\n\n(%s)", r.Text, r.Schedule.Describe())
	case 2:
		return fmt.Sprintf("🔔 Bill due in 2 days: %s\n\n(%s)", r.Text, r.Schedule.Describe())
	default:
		return fmt.Sprintf("🔔 Bill due: %s\n\n(%s)", r.Text, r.Schedule.Describe())
	}
}
