/**
 * @description
 * Time-of-day gating primitives shared by the fare rules. Subsidized fares and
 * free transfers are only valid inside legally mandated schedules, and the two
 * schedules are deliberately distinct configuration values (transfers run one
 * extra day and close one evening hour earlier than franchise cards).
 *
 * @dependencies
 * - time: Standard Go library.
 */

package domain

import "time"

// Clock supplies the current instant to every time-sensitive operation.
// Production wiring passes time.Now; tests pass fixed instants so the
// 5-minute gap, daily/monthly resets, and window gates stay deterministic.
type Clock func() time.Time

// TimeWindow is a weekly recurring window: a contiguous span of weekdays plus
// a daily opening span measured as offsets from midnight. IncludeClose selects
// between an inclusive close (franchise schedule, 22:00:00 still allowed) and
// a half-open close (transfer schedule, 22:00:00 already outside).
type TimeWindow struct {
	FirstDay     time.Weekday
	LastDay      time.Weekday
	Open         time.Duration
	Close        time.Duration
	IncludeClose bool
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	day := t.Weekday()
	if day < w.FirstDay || day > w.LastDay {
		return false
	}
	elapsed := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	if elapsed < w.Open {
		return false
	}
	if w.IncludeClose {
		return elapsed <= w.Close
	}
	return elapsed < w.Close
}

// sameCalendarDay reports whether a and b fall on the same calendar date.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
