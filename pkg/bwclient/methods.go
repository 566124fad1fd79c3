package bwclient

// Limit reports the daemon's current limit state.
type Limit struct {
	ManualLimit    int64 `json:"manualLimit"`
	EffectiveLimit int64 `json:"effectiveLimit"`
	LastCustom     int64 `json:"lastCustom"`
}

// Schedule reports the daemon's schedule and its runtime state.
type Schedule struct {
	Enabled        bool   `json:"enabled"`
	Days           string `json:"days"`
	Start          string `json:"start"`
	End            string `json:"end"`
	AltLimit       int64  `json:"altLimit"`
	ActiveNow      bool   `json:"activeNow"`
	NextTransition string `json:"nextTransition,omitempty"`
}

// Status combines limit and schedule state.
type Status struct {
	Limit    Limit    `json:"limit"`
	Schedule Schedule `json:"schedule"`
}

// Version is the daemon's version information.
type Version struct {
	Version string `json:"version"`
}

// ScheduleOpts are the fields of schedule.set.
type ScheduleOpts struct {
	Enabled  bool   `json:"enabled"`
	Days     string `json:"days"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AltLimit int64  `json:"altLimit"`
}

type setLimitParams struct {
	Limit int64 `json:"limit"`
}

type setAltLimitParams struct {
	AltLimit int64 `json:"altLimit"`
}

// GetVersion fetches the daemon version.
func (c *Client) GetVersion() (*Version, error) {
	return invoke[Version](c, "system.getVersion", nil)
}

// GetLimit fetches the current limit state.
func (c *Client) GetLimit() (*Limit, error) {
	return invoke[Limit](c, "limit.get", nil)
}

// SetLimit sets the manual limit in bytes per second (0 = unlimited).
func (c *Client) SetLimit(bytesPerSec int64) (*Limit, error) {
	return invoke[Limit](c, "limit.set", &setLimitParams{Limit: bytesPerSec})
}

// ToggleLimit flips between unlimited and the last custom limit.
func (c *Client) ToggleLimit() (*Limit, error) {
	return invoke[Limit](c, "limit.toggle", nil)
}

// GetSchedule fetches the current schedule.
func (c *Client) GetSchedule() (*Schedule, error) {
	return invoke[Schedule](c, "schedule.get", nil)
}

// SetSchedule replaces the whole schedule.
func (c *Client) SetSchedule(opts *ScheduleOpts) (*Schedule, error) {
	return invoke[Schedule](c, "schedule.set", opts)
}

// SetAltLimit replaces only the schedule's alternative limit.
func (c *Client) SetAltLimit(bytesPerSec int64) (*Schedule, error) {
	return invoke[Schedule](c, "schedule.setAltLimit", &setAltLimitParams{AltLimit: bytesPerSec})
}

// ToggleSchedule flips the schedule's enabled flag.
func (c *Client) ToggleSchedule() (*Schedule, error) {
	return invoke[Schedule](c, "schedule.toggle", nil)
}

// GetStatus fetches combined limit and schedule state.
func (c *Client) GetStatus() (*Status, error) {
	return invoke[Status](c, "status.get", nil)
}
