package repository

import (
	"context"

	"github.com/tuanvm/billbot/internal/database"
	"github.com/tuanvm/billbot/internal/models"
)

type SendLogRepository struct {
	db *database.DB
}

func NewSendLogRepository(db *database.DB) *SendLogRepository {
	return &SendLogRepository{db: db}
}

// Append inserts one occurrence record. The insert is conditional by way of
// the table's primary key: a concurrent or repeated dispatch of the same
// occurrence comes back as models.ErrDuplicateOccurrence and exactly one row
// survives.
func (r *SendLogRepository) Append(ctx context.Context, entry models.SendLogEntry) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO send_log (reminder_id, occurrence_id, user_id, sent_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.ReminderID, entry.OccurrenceID, entry.UserID, entry.SentAt,
	)
	return mapError(err, "append send log")
}

// Has reports whether an occurrence was already logged. This, not
// reminders.last_sent, is the dedup source of truth: a crash between send and
// the last_sent update still leaves the log row behind.
func (r *SendLogRepository) Has(ctx context.Context, reminderID int64, occurrenceID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM send_log WHERE reminder_id = $1 AND occurrence_id = $2)`,
		reminderID, occurrenceID,
	).Scan(&exists)
	if err != nil {
		return false, mapError(err, "check send log")
	}
	return exists, nil
}

// History returns the most recent sends for a reminder, newest first.
func (r *SendLogRepository) History(ctx context.Context, reminderID int64, limit int) ([]*models.SendLogEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, occurrence_id, user_id, sent_at
		 FROM send_log WHERE reminder_id = $1
		 ORDER BY sent_at DESC LIMIT $2`,
		reminderID, limit,
	)
	if err != nil {
		return nil, mapError(err, "send log history")
	}
	defer rows.Close()

	var entries []*models.SendLogEntry
	for rows.Next() {
		entry := &models.SendLogEntry{}
		if err := rows.Scan(&entry.ReminderID, &entry.OccurrenceID, &entry.UserID, &entry.SentAt); err != nil {
			return nil, mapError(err, "scan send log entry")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "send log history")
	}
	return entries, nil
}
