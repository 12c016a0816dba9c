package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvm/billbot/internal/models"
)

func TestSelectDue_TimezoneCorrectness(t *testing.T) {
	t.Parallel()

	// 07:35 in Asia/Ho_Chi_Minh (UTC+7) is 00:35 UTC.
	r := dailyReminder(t, 1, 100, "07:35", "Asia/Ho_Chi_Minh")

	tests := []struct {
		name    string
		nowUTC  time.Time
		wantDue bool
	}{
		{"exact minute", time.Date(2026, 3, 2, 0, 35, 0, 0, time.UTC), true},
		{"late in the minute", time.Date(2026, 3, 2, 0, 35, 59, 0, time.UTC), true},
		{"one minute before", time.Date(2026, 3, 2, 0, 34, 0, 0, time.UTC), false},
		{"one minute after, within grace", time.Date(2026, 3, 2, 0, 36, 0, 0, time.UTC), true},
		{"grace elapsed", time.Date(2026, 3, 2, 0, 40, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tt.nowUTC, r)
			due, err := f.sched.SelectDue(context.Background(), tt.nowUTC)
			require.NoError(t, err)
			if tt.wantDue {
				require.Len(t, due, 1)
				assert.Equal(t, "1:2026-03-02", due[0].OccurrenceID)
			} else {
				assert.Empty(t, due)
			}
		})
	}
}

func TestSelectDue_OccurrenceDateIsLocal(t *testing.T) {
	t.Parallel()

	// 23:50 UTC on March 1st is already March 2nd 06:50 in Ho Chi Minh;
	// the dedup key must carry the local date.
	now := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	r := dailyReminder(t, 7, 100, "06:50", "Asia/Ho_Chi_Minh")

	f := newFixture(t, now, r)
	due, err := f.sched.SelectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "7:2026-03-02", due[0].OccurrenceID)
}

func TestSelectDue_SkipsInactive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	active := dailyReminder(t, 1, 100, "09:00", "UTC")
	inactive := dailyReminder(t, 2, 100, "09:00", "UTC")
	inactive.Active = false

	f := newFixture(t, now, active, inactive)
	due, err := f.sched.SelectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(1), due[0].Reminder.ReminderID)
}

func TestSelectDue_ExcludesLoggedOccurrences(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	r := dailyReminder(t, 1, 100, "09:00", "UTC")

	f := newFixture(t, now, r)
	require.NoError(t, f.sendLog.Append(context.Background(), models.SendLogEntry{
		ReminderID: 1, OccurrenceID: "1:2026-03-02", UserID: 100, SentAt: now,
	}))

	due, err := f.sched.SelectDue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, due, "a logged occurrence is never due again")
}

func TestSelectDue_DedupUsesLogNotLastSent(t *testing.T) {
	t.Parallel()

	// Crash-recovery shape: the send was logged, but the process died before
	// last_sent was updated. The selector must still exclude it.
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	r := dailyReminder(t, 1, 100, "09:00", "UTC")
	r.LastSent = nil

	f := newFixture(t, now, r)
	require.NoError(t, f.sendLog.Append(context.Background(), models.SendLogEntry{
		ReminderID: 1, OccurrenceID: "1:2026-03-02", UserID: 100, SentAt: now,
	}))

	due, err := f.sched.SelectDue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestSelectDue_StableOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now,
		dailyReminder(t, 1, 100, "09:00", "UTC"),
		dailyReminder(t, 2, 101, "09:00", "UTC"),
		dailyReminder(t, 3, 102, "09:00", "UTC"),
	)

	due, err := f.sched.SelectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 3)
	for i, c := range due {
		assert.Equal(t, int64(i+1), c.Reminder.ReminderID)
	}
}

func TestSelectDue_TimezoneFallbackChain(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 0, 35, 0, 0, time.UTC)

	// No reminder zone: the owner's zone (UTC+7) applies.
	ownerZone := dailyReminder(t, 1, 100, "07:35", "")
	// Neither reminder nor owner zone: service default (UTC) applies.
	serviceDefault := dailyReminder(t, 2, 200, "00:35", "")

	f := newFixture(t, now, ownerZone, serviceDefault)
	f.users.users = []*models.User{
		{UserID: 100, Timezone: "Asia/Ho_Chi_Minh"},
		{UserID: 200},
	}

	due, err := f.sched.SelectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 2)
}

func TestSelectDue_AdvanceNotices(t *testing.T) {
	t.Parallel()

	r := monthlyReminder(t, 1, 100, "15", "09:00", "UTC")

	t.Run("two days ahead", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)
		f := newFixture(t, now, r)

		due, err := f.sched.SelectDue(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "1:2026-03-15:d-2", due[0].OccurrenceID, "keyed by the bill's date, not the send date")
		assert.Equal(t, 2, due[0].LeadDays)
	})

	t.Run("day of", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
		f := newFixture(t, now, r)

		due, err := f.sched.SelectDue(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "1:2026-03-15", due[0].OccurrenceID)
		assert.Equal(t, 0, due[0].LeadDays)
	})

	t.Run("each notice dedups independently", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		f := newFixture(t, now, r)
		require.NoError(t, f.sendLog.Append(context.Background(), models.SendLogEntry{
			ReminderID: 1, OccurrenceID: "1:2026-03-15:d-2", UserID: 100, SentAt: now.AddDate(0, 0, -1),
		}))

		due, err := f.sched.SelectDue(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, due, 1, "yesterday's notice does not swallow today's")
		assert.Equal(t, "1:2026-03-15:d-1", due[0].OccurrenceID)
	})
}

func TestSelectDue_StoreErrorAbortsWholeCycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("reminder list fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, now, dailyReminder(t, 1, 100, "09:00", "UTC"))
		f.reminders.listErr = models.ErrStoreUnavailable

		due, err := f.sched.SelectDue(context.Background(), now)
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
		assert.Nil(t, due, "no partial due-set on store failure")
	})

	t.Run("dedup check fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, now, dailyReminder(t, 1, 100, "09:00", "UTC"))
		f.sendLog.hasErr = models.ErrStoreUnavailable

		due, err := f.sched.SelectDue(context.Background(), now)
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
		assert.Nil(t, due)
	})

	t.Run("user list fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, now, dailyReminder(t, 1, 100, "09:00", "UTC"))
		f.users.listErr = errors.New("read timeout")

		_, err := f.sched.SelectDue(context.Background(), now)
		assert.Error(t, err)
	})
}
