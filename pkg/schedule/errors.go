package schedule

import "errors"

var (
	ErrNoDays       = errors.New("schedule must have at least one active day")
	ErrLimitTooLow  = errors.New("alternative speed limit is below the minimum floor")
	ErrClockInvalid = errors.New("clock value out of range")
)
