package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DaySet is a set of weekdays stored as a bitmask, with bit i corresponding
// to time.Weekday(i) (Sunday = 0).
type DaySet uint8

// AllDays contains every day of the week.
const AllDays DaySet = 0x7f

// Days builds a DaySet from the given weekdays.
func Days(days ...time.Weekday) DaySet {
	var d DaySet
	for _, w := range days {
		d = d.Add(w)
	}
	return d
}

// Add returns a copy of the set with the given weekday included.
func (d DaySet) Add(w time.Weekday) DaySet {
	return d | 1<<uint(w)
}

// Has reports whether the given weekday is in the set.
func (d DaySet) Has(w time.Weekday) bool {
	return d&(1<<uint(w)) != 0
}

// Empty reports whether the set contains no days.
func (d DaySet) Empty() bool {
	return d&AllDays == 0
}

// ShiftForward returns the set with every day moved one calendar day ahead
// (Mon becomes Tue, Sat becomes Sun). Used to map the end boundary of an
// overnight window onto the day after its start day.
func (d DaySet) ShiftForward() DaySet {
	var out DaySet
	for w := time.Sunday; w <= time.Saturday; w++ {
		if d.Has(w) {
			out = out.Add((w + 1) % 7)
		}
	}
	return out
}

// Weekdays returns the days in the set in Sunday..Saturday order.
func (d DaySet) Weekdays() []time.Weekday {
	var out []time.Weekday
	for w := time.Sunday; w <= time.Saturday; w++ {
		if d.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

// String formats the set as comma-separated short day names, e.g. "Mon,Fri".
func (d DaySet) String() string {
	if d.Empty() {
		return "none"
	}
	if d&AllDays == AllDays {
		return "all"
	}
	var parts []string
	for _, w := range d.Weekdays() {
		parts = append(parts, w.String()[:3])
	}
	return strings.Join(parts, ",")
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseDays parses a day-set string as used by the CLI. Accepted forms:
// "all", comma-separated short names ("mon,wed,fri"), and ranges
// ("mon-fri", "fri-sun" wrapping over the weekend).
func ParseDays(s string) (DaySet, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" || s == "daily" {
		return AllDays, nil
	}
	var d DaySet
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if from, to, ok := strings.Cut(tok, "-"); ok {
			a, aok := dayNames[from]
			b, bok := dayNames[to]
			if !aok || !bok {
				return 0, fmt.Errorf("invalid day range %q", tok)
			}
			for w := a; ; w = (w + 1) % 7 {
				d = d.Add(w)
				if w == b {
					break
				}
			}
			continue
		}
		w, ok := dayNames[tok]
		if !ok {
			return 0, fmt.Errorf("invalid day name %q", tok)
		}
		d = d.Add(w)
	}
	if d.Empty() {
		return 0, ErrNoDays
	}
	return d, nil
}
