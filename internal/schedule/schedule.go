// Package schedule decides when a recurring reminder is due. Everything here
// is a pure function of its inputs: callers convert "now" into the reminder's
// own timezone before asking, and malformed day/time values are rejected by
// Parse at creation time, never at evaluation time.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Frequency string

const (
	FreqOnce    Frequency = "once"
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

const dateLayout = "2006-01-02"

// Spec is a validated recurrence: a local time-of-day plus a day anchor whose
// meaning depends on Frequency.
type Spec struct {
	Frequency Frequency
	Hour      int
	Minute    int

	Weekday  time.Weekday // weekly
	MonthDay int          // monthly, 1-31 (clamped to short months at evaluation)
	Date     time.Time    // once, date only
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Parse validates the raw (frequency, day, time) triple as stored and as
// typed by users. The day token is interpreted per frequency: ignored for
// daily, a weekday name or 0-6 (Sunday=0) for weekly, 1-31 for monthly, a
// YYYY-MM-DD date for once.
func Parse(frequency, day, timeOfDay string) (Spec, error) {
	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return Spec{}, err
	}

	s := Spec{Hour: hour, Minute: minute}

	switch Frequency(strings.ToLower(strings.TrimSpace(frequency))) {
	case FreqDaily:
		s.Frequency = FreqDaily

	case FreqWeekly:
		s.Frequency = FreqWeekly
		wd, err := parseWeekday(day)
		if err != nil {
			return Spec{}, err
		}
		s.Weekday = wd

	case FreqMonthly:
		s.Frequency = FreqMonthly
		n, err := strconv.Atoi(strings.TrimSpace(day))
		if err != nil || n < 1 || n > 31 {
			return Spec{}, fmt.Errorf("invalid day of month %q", day)
		}
		s.MonthDay = n

	case FreqOnce:
		s.Frequency = FreqOnce
		d, err := time.Parse(dateLayout, strings.TrimSpace(day))
		if err != nil {
			return Spec{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", day)
		}
		s.Date = d

	default:
		return Spec{}, fmt.Errorf("unknown frequency %q", frequency)
	}

	return s, nil
}

// ParseTimeOfDay validates an HH:MM string.
func ParseTimeOfDay(timeOfDay string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(timeOfDay), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", timeOfDay)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", timeOfDay)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", timeOfDay)
	}
	return hour, minute, nil
}

func parseWeekday(day string) (time.Weekday, error) {
	day = strings.ToLower(strings.TrimSpace(day))
	if wd, ok := weekdays[day]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(day); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid weekday %q", day)
}

// sendGrace is how long past its scheduled minute an occurrence stays
// eligible. A send that fails transiently at 09:00 can still be picked up by
// the 09:01 cycle; the date-based occurrence id keeps the repeat match from
// double-sending.
const sendGrace = 5 * time.Minute

// LeadDays reports how many days of advance notice the frequency carries.
// Monthly and one-off bills are announced two days ahead, one day ahead and
// on the day itself; daily and weekly reminders only fire day-of.
func (s Spec) LeadDays() int {
	if s.Frequency == FreqMonthly || s.Frequency == FreqOnce {
		return 2
	}
	return 0
}

// Due reports the notifications that fire at nowLocal: the local day the
// scheduled minute belongs to, plus one offset per notification (0 for
// day-of, k > 0 for a bill whose date is k days ahead). nowLocal must
// already be in the reminder's timezone; this function never converts.
func (s Spec) Due(nowLocal time.Time) (day time.Time, offsets []int) {
	day, ok := s.fireDay(nowLocal)
	if !ok {
		return time.Time{}, nil
	}
	for k := 0; k <= s.LeadDays(); k++ {
		if s.matchesDay(day.AddDate(0, 0, k)) {
			offsets = append(offsets, k)
		}
	}
	return day, offsets
}

// DueAt reports whether the day-of notification fires at nowLocal.
func (s Spec) DueAt(nowLocal time.Time) bool {
	day, ok := s.fireDay(nowLocal)
	return ok && s.matchesDay(day)
}

// fireDay resolves the local day whose scheduled minute covers nowLocal,
// looking one day back when the grace spans midnight.
func (s Spec) fireDay(nowLocal time.Time) (time.Time, bool) {
	for d := 0; d <= 1; d++ {
		day := nowLocal.AddDate(0, 0, -d)
		at := time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, nowLocal.Location())
		since := nowLocal.Sub(at)
		if since >= 0 && since < sendGrace {
			return day, true
		}
	}
	return time.Time{}, false
}

func (s Spec) matchesDay(nowLocal time.Time) bool {
	switch s.Frequency {
	case FreqDaily:
		return true
	case FreqWeekly:
		return nowLocal.Weekday() == s.Weekday
	case FreqMonthly:
		// day=31 fires on Feb 28/29 etc: the anchor is clamped to the last
		// day of short months rather than skipped.
		return nowLocal.Day() == clampMonthDay(s.MonthDay, nowLocal.Year(), nowLocal.Month())
	case FreqOnce:
		y1, m1, d1 := s.Date.Date()
		y2, m2, d2 := nowLocal.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return false
}

func clampMonthDay(day, year int, month time.Month) int {
	if last := lastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OccurrenceID is the dedup key for one notification: the reminder id, the
// bill's calendar date in the reminder's timezone, and for advance notices
// the days of lead. It is deliberately independent of the send timestamp so
// re-evaluating the same minute after a restart yields the same key.
func OccurrenceID(reminderID int64, billDate time.Time, leadDays int) string {
	id := fmt.Sprintf("%d:%s", reminderID, billDate.Format(dateLayout))
	if leadDays > 0 {
		id = fmt.Sprintf("%s:d-%d", id, leadDays)
	}
	return id
}

// DayToken returns the canonical storage form of the day anchor.
func (s Spec) DayToken() string {
	switch s.Frequency {
	case FreqWeekly:
		return strings.ToLower(s.Weekday.String())
	case FreqMonthly:
		return strconv.Itoa(s.MonthDay)
	case FreqOnce:
		return s.Date.Format(dateLayout)
	}
	return ""
}

// TimeToken returns the canonical HH:MM storage form of the time-of-day.
func (s Spec) TimeToken() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// Describe renders a short human-readable form of the recurrence for list
// output, e.g. "monthly on day 5 at 09:00".
func (s Spec) Describe() string {
	at := s.TimeToken()
	switch s.Frequency {
	case FreqDaily:
		return "daily at " + at
	case FreqWeekly:
		return fmt.Sprintf("every %s at %s", s.Weekday, at)
	case FreqMonthly:
		return fmt.Sprintf("monthly on day %d at %s", s.MonthDay, at)
	case FreqOnce:
		return fmt.Sprintf("once on %s at %s", s.Date.Format(dateLayout), at)
	}
	return string(s.Frequency) + " at " + at
}
