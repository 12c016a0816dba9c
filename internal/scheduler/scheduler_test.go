package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tuanvm/billbot/internal/models"
	"github.com/tuanvm/billbot/internal/schedule"
)

// ---------------------------------------------------------------------------
// Fakes for the store and channel seams
// ---------------------------------------------------------------------------

type fakeReminderStore struct {
	mu          sync.Mutex
	reminders   []*models.Reminder
	listErr     error
	markCalls   []markCall
	deactivated []int64
}

type markCall struct {
	reminderID int64
	sentAt     time.Time
	deactivate bool
}

func (f *fakeReminderStore) ListActive(context.Context) ([]*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []*models.Reminder
	for _, r := range f.reminders {
		if r.Active {
			active = append(active, r)
		}
	}
	return active, nil
}

func (f *fakeReminderStore) MarkSent(_ context.Context, reminderID int64, sentAt time.Time, deactivate bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, markCall{reminderID, sentAt, deactivate})
	for _, r := range f.reminders {
		if r.ReminderID == reminderID {
			t := sentAt
			r.LastSent = &t
			if deactivate {
				r.Active = false
			}
		}
	}
	return nil
}

func (f *fakeReminderStore) Deactivate(_ context.Context, reminderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, reminderID)
	for _, r := range f.reminders {
		if r.ReminderID == reminderID {
			r.Active = false
		}
	}
	return nil
}

type fakeUserStore struct {
	users   []*models.User
	listErr error
}

func (f *fakeUserStore) List(context.Context) ([]*models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

type fakeSendLog struct {
	mu        sync.Mutex
	entries   map[string]models.SendLogEntry // keyed by occurrence id
	hasErr    error
	appendErr error
}

func newFakeSendLog() *fakeSendLog {
	return &fakeSendLog{entries: map[string]models.SendLogEntry{}}
}

func (f *fakeSendLog) Has(_ context.Context, _ int64, occurrenceID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasErr != nil {
		return false, f.hasErr
	}
	_, ok := f.entries[occurrenceID]
	return ok, nil
}

func (f *fakeSendLog) Append(_ context.Context, entry models.SendLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	if _, ok := f.entries[entry.OccurrenceID]; ok {
		return fmt.Errorf("append send log: %w", models.ErrDuplicateOccurrence)
	}
	f.entries[entry.OccurrenceID] = entry
	return nil
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []int64  // chat ids in send order
	texts   []string // message bodies in send order
	failFor map[int64]error
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, chatID)
	f.texts = append(f.texts, text)
	return nil
}

// ---------------------------------------------------------------------------
// Builders
// ---------------------------------------------------------------------------

func dailyReminder(t *testing.T, id, userID int64, timeOfDay, tz string) *models.Reminder {
	t.Helper()
	spec, err := schedule.Parse("daily", "", timeOfDay)
	require.NoError(t, err)
	return &models.Reminder{
		ReminderID: id,
		UserID:     userID,
		Text:       fmt.Sprintf("bill %d", id),
		Schedule:   spec,
		Timezone:   tz,
		Active:     true,
	}
}

func monthlyReminder(t *testing.T, id, userID int64, day, timeOfDay, tz string) *models.Reminder {
	t.Helper()
	spec, err := schedule.Parse("monthly", day, timeOfDay)
	require.NoError(t, err)
	return &models.Reminder{
		ReminderID: id,
		UserID:     userID,
		Text:       fmt.Sprintf("bill %d", id),
		Schedule:   spec,
		Timezone:   tz,
		Active:     true,
	}
}

func onceReminder(t *testing.T, id, userID int64, date, timeOfDay, tz string) *models.Reminder {
	t.Helper()
	spec, err := schedule.Parse("once", date, timeOfDay)
	require.NoError(t, err)
	return &models.Reminder{
		ReminderID: id,
		UserID:     userID,
		Text:       fmt.Sprintf("bill %d", id),
		Schedule:   spec,
		Timezone:   tz,
		Active:     true,
	}
}

type fixture struct {
	sched     *Scheduler
	reminders *fakeReminderStore
	users     *fakeUserStore
	sendLog   *fakeSendLog
	sender    *fakeSender
}

func newFixture(t *testing.T, now time.Time, reminders ...*models.Reminder) *fixture {
	t.Helper()

	f := &fixture{
		reminders: &fakeReminderStore{reminders: reminders},
		users:     &fakeUserStore{},
		sendLog:   newFakeSendLog(),
		sender:    &fakeSender{failFor: map[int64]error{}},
	}
	f.sched = New(f.sender, f.reminders, f.users, f.sendLog, Window{}, Options{
		DefaultTimezone: "UTC",
		Now:             func() time.Time { return now },
	}, zap.NewNop())
	return f
}
