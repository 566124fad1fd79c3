package schedule

import "time"

// searchHorizonDays bounds the next-occurrence scan. The day set is
// non-empty, so a matching day always exists within a week; the bound only
// guards the loop.
const searchHorizonDays = 7

// Active reports whether now falls inside the schedule's window. It ignores
// the Enabled flag; callers gate on that themselves.
//
// For an overnight window that is still open from yesterday (time of day at
// or before End), membership is decided by the previous calendar day's
// weekday, because that is the day the window was opened on. Both boundary
// minutes are inclusive.
func Active(now time.Time, s Schedule) bool {
	tod := now.Hour()*60 + now.Minute()
	start, end := s.Start.Minutes(), s.End.Minutes()
	overnight := start > end

	day := now.Weekday()
	if overnight && tod <= end {
		day = now.AddDate(0, 0, -1).Weekday()
	}
	if !s.Days.Has(day) {
		return false
	}
	if overnight {
		return tod >= start || tod <= end
	}
	return tod >= start && tod <= end
}

// NextTransition returns the next instant, strictly after now, at which the
// window flips between active and inactive: the earlier of the next open
// boundary and the next close boundary. The window opens at Start and, since
// the End minute is inclusive, closes at the minute after End; an evaluation
// at the close instant therefore observes the window inactive. For overnight
// windows the close belongs to the day after the start day, so the close scan
// runs over the day set shifted forward by one calendar day; an End of 23:59
// closes at 00:00 and shifts one further day.
func NextTransition(now time.Time, s Schedule) time.Time {
	next := nextOccurrence(s.Start, s.Days, now)

	closeDays := s.Days
	if s.IsOvernight() {
		closeDays = closeDays.ShiftForward()
	}
	closeMin := s.End.Minutes() + 1
	if closeMin == 24*60 {
		closeMin = 0
		closeDays = closeDays.ShiftForward()
	}
	closeAt := Clock{Hour: closeMin / 60, Minute: closeMin % 60}
	if e := nextOccurrence(closeAt, closeDays, now); e.Before(next) {
		next = e
	}
	return next
}

// nextOccurrence scans calendar dates from today through searchHorizonDays
// ahead and returns the first zoned instant of (date, c) on a valid day that
// is strictly after now. Day stepping uses AddDate so DST-length days are
// respected. The trailing fallback is a defensive guard only: a non-empty
// day set always matches within the horizon.
func nextOccurrence(c Clock, days DaySet, now time.Time) time.Time {
	for off := 0; off <= searchHorizonDays; off++ {
		d := now.AddDate(0, 0, off)
		if !days.Has(d.Weekday()) {
			continue
		}
		cand := time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, now.Location())
		if cand.After(now) {
			return cand
		}
	}
	return now.AddDate(0, 0, 1)
}
