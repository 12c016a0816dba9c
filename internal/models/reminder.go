package models

import (
	"time"

	"github.com/tuanvm/billbot/internal/schedule"
)

type Reminder struct {
	ReminderID int64         `json:"reminder_id"`
	UserID     int64         `json:"user_id"`
	Text       string        `json:"text"`
	Schedule   schedule.Spec `json:"schedule"`
	Timezone   string        `json:"timezone"` // IANA zone; empty means "use the owner's"
	Active     bool          `json:"active"`
	LastSent   *time.Time    `json:"last_sent"` // informational; the send log is authoritative
	CreatedAt  time.Time     `json:"created_at"`
}

// IsOnce returns true for reminders that fire a single time and are then
// deactivated.
func (r *Reminder) IsOnce() bool {
	return r.Schedule.Frequency == schedule.FreqOnce
}
