package schedule

import "fmt"

// MinLimit is the lowest alternative speed limit a schedule will accept,
// in bytes per second (256 KiB/s).
const MinLimit int64 = 256 * 1024

// Schedule describes a recurring bandwidth window: on the listed days,
// between Start and End (inclusive both ends), the alternative speed limit
// applies instead of the manual one. When Start > End the window spans
// midnight into the following day.
//
// Schedule is an immutable value. New refuses to construct an invalid one,
// so any Schedule obtained from this package satisfies its invariants.
type Schedule struct {
	Enabled  bool
	Days     DaySet
	Start    Clock
	End      Clock
	AltLimit int64 // bytes per second, >= MinLimit
}

// New validates and constructs a Schedule. An empty day set or an
// alternative limit below MinLimit is a configuration error, not a value
// to be silently corrected.
func New(enabled bool, days DaySet, start, end Clock, altLimit int64) (Schedule, error) {
	if days.Empty() {
		return Schedule{}, ErrNoDays
	}
	if !start.Valid() {
		return Schedule{}, fmt.Errorf("%w: start %s", ErrClockInvalid, start)
	}
	if !end.Valid() {
		return Schedule{}, fmt.Errorf("%w: end %s", ErrClockInvalid, end)
	}
	if altLimit < MinLimit {
		return Schedule{}, fmt.Errorf("%w: %d < %d", ErrLimitTooLow, altLimit, MinLimit)
	}
	return Schedule{
		Enabled:  enabled,
		Days:     days,
		Start:    start,
		End:      end,
		AltLimit: altLimit,
	}, nil
}

// IsOvernight reports whether the window spans midnight, i.e. the end
// time of day is numerically before the start time of day.
func (s Schedule) IsOvernight() bool {
	return s.Start.Minutes() > s.End.Minutes()
}

// WithEnabled returns a copy with only the enabled flag changed.
func (s Schedule) WithEnabled(on bool) Schedule {
	s.Enabled = on
	return s
}

// WithAltLimit returns a copy with a new alternative limit, revalidated
// through the constructor so the floor invariant holds.
func (s Schedule) WithAltLimit(altLimit int64) (Schedule, error) {
	return New(s.Enabled, s.Days, s.Start, s.End, altLimit)
}

// String formats the schedule for logs and CLI output.
func (s Schedule) String() string {
	state := "disabled"
	if s.Enabled {
		state = "enabled"
	}
	return fmt.Sprintf("%s %s %s-%s alt=%dB/s", state, s.Days, s.Start, s.End, s.AltLimit)
}
