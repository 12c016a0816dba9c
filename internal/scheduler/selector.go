package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/models"
	"github.com/tuanvm/billbot/internal/schedule"
)

// Candidate is one occurrence picked for dispatch this cycle. LeadDays is 0
// for the day-of notification and 1 or 2 for an advance notice of a monthly
// or one-off bill.
type Candidate struct {
	Reminder     *models.Reminder
	OccurrenceID string
	LeadDays     int
}

// SelectDue scans all active reminders, evaluates each against "now" in its
// own timezone, and returns the notifications (day-of plus any advance
// notices) that are due and not yet logged, in ascending reminder-id order.
// Any store error aborts the whole selection: an incomplete due-set is never
// returned.
func (s *Scheduler) SelectDue(ctx context.Context, nowUTC time.Time) ([]Candidate, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	userZones := make(map[int64]string, len(users))
	for _, u := range users {
		userZones[u.UserID] = u.Timezone
	}

	reminders, err := s.reminders.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active reminders: %w", err)
	}

	locations := map[string]*time.Location{}
	var due []Candidate

	for _, r := range reminders {
		if !r.Active {
			continue
		}

		loc := s.location(locations, r, userZones[r.UserID])
		nowLocal := nowUTC.In(loc)

		day, offsets := r.Schedule.Due(nowLocal)
		for _, lead := range offsets {
			occurrenceID := schedule.OccurrenceID(r.ReminderID, day.AddDate(0, 0, lead), lead)
			logged, err := s.sendLog.Has(ctx, r.ReminderID, occurrenceID)
			if err != nil {
				return nil, fmt.Errorf("dedup check: %w", err)
			}
			if logged {
				continue
			}
			due = append(due, Candidate{Reminder: r, OccurrenceID: occurrenceID, LeadDays: lead})
		}
	}

	return due, nil
}

// location resolves the zone a reminder fires in: its own, else its owner's,
// else the service default. Zones are validated at creation, so an unloadable
// one here only happens on corrupted data; it falls back rather than losing
// the reminder.
func (s *Scheduler) location(cache map[string]*time.Location, r *models.Reminder, userZone string) *time.Location {
	for _, name := range []string{r.Timezone, userZone, s.defaultTZ} {
		if name == "" {
			continue
		}
		if loc, ok := cache[name]; ok {
			if loc != nil {
				return loc
			}
			continue
		}
		loc, err := time.LoadLocation(name)
		cache[name] = loc
		if err != nil {
			s.logger.Warn("unknown timezone, falling back",
				zap.String("timezone", name),
				zap.Int64("reminder_id", r.ReminderID))
			continue
		}
		return loc
	}
	return time.UTC
}
