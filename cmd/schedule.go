package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/warpdl/bandwidth/pkg/bwclient"
	"github.com/warpdl/bandwidth/pkg/throttle"
)

var (
	schedDays    string
	schedStart   string
	schedEnd     string
	schedLimit   string
	schedEnable  bool
	schedDisable bool

	scheduleSetFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "days, d",
			Usage:       "days the schedule applies to (e.g. 'all', 'mon-fri', 'fri,sat')",
			Destination: &schedDays,
		},
		cli.StringFlag{
			Name:        "start",
			Usage:       "window start time in 24h HH:MM",
			Destination: &schedStart,
		},
		cli.StringFlag{
			Name:        "end",
			Usage:       "window end time in 24h HH:MM (before start means overnight)",
			Destination: &schedEnd,
		},
		cli.StringFlag{
			Name:        "limit, l",
			Usage:       "alternative speed limit applied inside the window",
			Destination: &schedLimit,
		},
		cli.BoolFlag{
			Name:        "enable, e",
			Usage:       "enable the schedule",
			Destination: &schedEnable,
		},
		cli.BoolFlag{
			Name:        "disable",
			Usage:       "disable the schedule",
			Destination: &schedDisable,
		},
	}
)

func scheduleShow(_ *cli.Context) error {
	res, err := newClient().GetSchedule()
	if err != nil {
		return err
	}
	printSchedule(res)
	return nil
}

// scheduleSet merges the provided flags over the daemon's current schedule
// and sends the whole schedule back, so omitted fields stay untouched.
func scheduleSet(_ *cli.Context) error {
	if schedEnable && schedDisable {
		return errors.New("--enable and --disable are mutually exclusive")
	}
	c := newClient()
	cur, err := c.GetSchedule()
	if err != nil {
		return err
	}

	opts := &bwclient.ScheduleOpts{
		Enabled:  cur.Enabled,
		Days:     cur.Days,
		Start:    cur.Start,
		End:      cur.End,
		AltLimit: cur.AltLimit,
	}
	if schedDays != "" {
		opts.Days = schedDays
	}
	if schedStart != "" {
		opts.Start = schedStart
	}
	if schedEnd != "" {
		opts.End = schedEnd
	}
	if schedLimit != "" {
		n, err := throttle.ParseLimit(schedLimit)
		if err != nil {
			return err
		}
		opts.AltLimit = n
	}
	if schedEnable {
		opts.Enabled = true
	}
	if schedDisable {
		opts.Enabled = false
	}

	res, err := c.SetSchedule(opts)
	if err != nil {
		return err
	}
	printSchedule(res)
	return nil
}

func scheduleToggle(_ *cli.Context) error {
	res, err := newClient().ToggleSchedule()
	if err != nil {
		return err
	}
	printSchedule(res)
	return nil
}

func scheduleAlt(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" {
		return errors.New("usage: bwsched schedule alt <limit>")
	}
	n, err := throttle.ParseLimit(arg)
	if err != nil {
		return err
	}
	res, err := newClient().SetAltLimit(n)
	if err != nil {
		return err
	}
	printSchedule(res)
	return nil
}

func printSchedule(s *bwclient.Schedule) {
	state := "disabled"
	if s.Enabled {
		state = "enabled"
	}
	fmt.Printf("Schedule:  %s\n", state)
	fmt.Printf("Days:      %s\n", s.Days)
	fmt.Printf("Window:    %s - %s\n", s.Start, s.End)
	fmt.Printf("Alt limit: %s\n", throttle.FormatLimit(s.AltLimit))
	if s.Enabled {
		fmt.Printf("Active:    %v\n", s.ActiveNow)
		if s.NextTransition != "" {
			fmt.Printf("Next:      %s\n", s.NextTransition)
		}
	}
}
