package scheduler

import (
	"fmt"
	"time"

	"github.com/tuanvm/billbot/internal/schedule"
)

// Window is the coarse operating gate: cycles only run while the configured
// local interval is open. Due-detection itself never looks at it.
type Window struct {
	startMin   int // minutes since local midnight
	endMin     int
	loc        *time.Location
	gated      bool
	alwaysOpen bool
}

// NewWindow builds the gate from "HH:MM" bounds in the given zone. Empty
// bounds mean the service runs around the clock; alwaysOpen forces that even
// when bounds are set (the debug override).
func NewWindow(start, end, tz string, alwaysOpen bool) (Window, error) {
	w := Window{alwaysOpen: alwaysOpen}

	if start == "" && end == "" {
		return w, nil
	}
	if start == "" || end == "" {
		return Window{}, fmt.Errorf("window needs both start and end, got %q and %q", start, end)
	}

	sh, sm, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	eh, em, err := schedule.ParseTimeOfDay(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Window{}, fmt.Errorf("window timezone: %w", err)
	}

	w.startMin = sh*60 + sm
	w.endMin = eh*60 + em
	w.loc = loc
	w.gated = true
	return w, nil
}

// Open reports whether the gate admits a cycle at the given instant. The
// interval is half-open [start, end); an end before the start spans midnight.
func (w Window) Open(now time.Time) bool {
	if !w.gated || w.alwaysOpen {
		return true
	}

	local := now.In(w.loc)
	cur := local.Hour()*60 + local.Minute()

	if w.startMin > w.endMin {
		return cur >= w.startMin || cur < w.endMin
	}
	return cur >= w.startMin && cur < w.endMin
}
