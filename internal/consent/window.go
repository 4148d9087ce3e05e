package consent

import "time"

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildWindows derives consent windows from a user's ordered event history
// and a report end date. Each event's date is paired with the next event's
// date; the last window extends through end. The windows partition
// [firstEventDate, end) with no gaps or overlaps.
//
// Returns nil when the history is empty, or when it holds a single revoking
// event (such a user never has a consenting day).
func BuildWindows(events []Event, end time.Time) []Window {
	if len(events) == 0 {
		return nil
	}
	if len(events) == 1 && !events[0].Consent {
		return nil
	}

	end = Day(end)
	windows := make([]Window, 0, len(events))
	for i, ev := range events {
		from := Day(ev.CreatedAt)
		to := end
		if i+1 < len(events) {
			to = Day(events[i+1].CreatedAt)
		}
		if to.Before(from) {
			to = from
		}
		windows = append(windows, Window{From: from, To: to, Consent: ev.Consent})
	}

	return windows
}

// Cursor walks a sorted window list in step with an ascending day iteration.
// The index advances at most once per Consenting call and never regresses.
type Cursor struct {
	windows []Window
	idx     int
}

// NewCursor wraps the given windows, which must be sorted by From ascending.
func NewCursor(windows []Window) *Cursor {
	return &Cursor{windows: windows}
}

// Consenting reports whether the user's consent was active on the given day.
// Days before the first window are never consenting.
func (c *Cursor) Consenting(day time.Time) bool {
	if len(c.windows) == 0 {
		return false
	}

	// advance once the day has left the current window
	if c.idx+1 < len(c.windows) && !day.Before(c.windows[c.idx].To) {
		c.idx++
	}

	w := c.windows[c.idx]
	if day.Before(w.From) || !day.Before(w.To) {
		return false
	}
	return w.Consent
}
