package models

import "time"

// SendLogEntry is an append-only record of one delivered occurrence. Entries
// are never updated or deleted; the (ReminderID, OccurrenceID) pair is unique
// and is what makes repeated or concurrent dispatch cycles safe.
type SendLogEntry struct {
	ReminderID   int64     `json:"reminder_id"`
	OccurrenceID string    `json:"occurrence_id"`
	UserID       int64     `json:"user_id"`
	SentAt       time.Time `json:"sent_at"`
}
