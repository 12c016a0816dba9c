package models

import "time"

type User struct {
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timezone  string    `json:"timezone"` // IANA zone, default for reminders without one
	CreatedAt time.Time `json:"created_at"`
}
