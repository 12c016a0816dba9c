package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tuanvm/billbot/internal/database"
	"github.com/tuanvm/billbot/internal/models"
	"github.com/tuanvm/billbot/internal/schedule"
)

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

const reminderColumns = `reminder_id, user_id, text, frequency, day, time_of_day, timezone, active, last_sent, created_at`

// scanReminder coerces a raw row into a typed record. Schedules are validated
// at creation, so a parse failure here means the stored row was corrupted
// outside this program.
func scanReminder(row interface{ Scan(...any) error }) (*models.Reminder, error) {
	var (
		r         models.Reminder
		frequency string
		day       string
		timeOfDay string
	)
	if err := row.Scan(&r.ReminderID, &r.UserID, &r.Text, &frequency, &day, &timeOfDay,
		&r.Timezone, &r.Active, &r.LastSent, &r.CreatedAt); err != nil {
		return nil, err
	}

	spec, err := schedule.Parse(frequency, day, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("reminder %d has malformed schedule: %w", r.ReminderID, err)
	}
	r.Schedule = spec
	return &r, nil
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (user_id, text, frequency, day, time_of_day, timezone, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING reminder_id, created_at`,
		reminder.UserID, reminder.Text,
		string(reminder.Schedule.Frequency), reminder.Schedule.DayToken(), reminder.Schedule.TimeToken(),
		reminder.Timezone, reminder.Active,
	).Scan(&reminder.ReminderID, &reminder.CreatedAt)
	return mapError(err, "create reminder")
}

func (r *ReminderRepository) GetByID(ctx context.Context, reminderID, userID int64) (*models.Reminder, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE reminder_id = $1 AND user_id = $2`,
		reminderID, userID,
	)
	reminder, err := scanReminder(row)
	if err != nil {
		return nil, mapError(err, "get reminder")
	}
	return reminder, nil
}

func (r *ReminderRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = $1 ORDER BY reminder_id ASC`,
		userID,
	)
	if err != nil {
		return nil, mapError(err, "list reminders")
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, mapError(err, "scan reminder")
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list reminders")
	}
	return reminders, nil
}

// ListActive returns every active reminder in ascending id order, so each
// dispatch cycle walks candidates deterministically.
func (r *ReminderRepository) ListActive(ctx context.Context) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE active ORDER BY reminder_id ASC`,
	)
	if err != nil {
		return nil, mapError(err, "list active reminders")
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, mapError(err, "scan reminder")
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list active reminders")
	}
	return reminders, nil
}

// MarkSent records a successful dispatch on the reminder row. GREATEST keeps
// last_sent monotone even if cycles land out of order; deactivate is set for
// once-only reminders.
func (r *ReminderRepository) MarkSent(ctx context.Context, reminderID int64, sentAt time.Time, deactivate bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders
		 SET last_sent = GREATEST(COALESCE(last_sent, 'epoch'::timestamptz), $1),
		     active = active AND NOT $2
		 WHERE reminder_id = $3`,
		sentAt, deactivate, reminderID,
	)
	return mapError(err, "mark reminder sent")
}

// Deactivate turns a reminder off without touching last_sent. Used both by
// the user-facing toggle and by the dispatcher on permanent channel failures.
func (r *ReminderRepository) Deactivate(ctx context.Context, reminderID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET active = FALSE WHERE reminder_id = $1`,
		reminderID,
	)
	return mapError(err, "deactivate reminder")
}

func (r *ReminderRepository) SetActive(ctx context.Context, reminderID, userID int64, active bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET active = $1 WHERE reminder_id = $2 AND user_id = $3`,
		active, reminderID, userID,
	)
	if err != nil {
		return mapError(err, "set reminder active")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set reminder active: %w", models.ErrNotFound)
	}
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, reminderID, userID int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE reminder_id = $1 AND user_id = $2`,
		reminderID, userID,
	)
	if err != nil {
		return mapError(err, "delete reminder")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete reminder: %w", models.ErrNotFound)
	}
	return nil
}
