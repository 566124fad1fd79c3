package cmd

import (
	"github.com/urfave/cli"

	"github.com/warpdl/bandwidth/pkg/bwclient"
)

const version = "0.1.0"

var (
	daemonAddr   string
	daemonSecret string

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "addr, a",
			Usage:       "address of the bandwidth daemon",
			Value:       bwclient.DefaultAddr,
			EnvVar:      "BWSCHED_ADDR",
			Destination: &daemonAddr,
		},
		cli.StringFlag{
			Name:        "secret, s",
			Usage:       "shared secret for daemon authentication",
			EnvVar:      "BWSCHED_SECRET",
			Destination: &daemonSecret,
		},
	}
)

func Execute(args []string) error {
	app := cli.App{
		Name:      "bwsched",
		HelpName:  "bwsched",
		Usage:     "Time-based bandwidth scheduling and speed limit control.",
		Version:   version,
		UsageText: "bwsched [options] <command> [arguments...]",
		Flags:     globalFlags,
		Commands: []cli.Command{
			{
				Name:   "daemon",
				Usage:  "run the bandwidth scheduling daemon",
				Action: daemon,
				Flags:  daemonFlags,
			},
			{
				Name:    "status",
				Aliases: []string{"st"},
				Usage:   "show the current limit and schedule state",
				Action:  status,
			},
			{
				Name:                   "limit",
				Aliases:                []string{"l"},
				Usage:                  "show, set or toggle the manual speed limit",
				UsageText:              "bwsched limit [512KB|1.5MB|unlimited]",
				Action:                 limit,
				Flags:                  limitFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:    "schedule",
				Aliases: []string{"sch"},
				Usage:   "manage the alternative speed limit schedule",
				Subcommands: []cli.Command{
					{
						Name:   "show",
						Usage:  "print the current schedule",
						Action: scheduleShow,
					},
					{
						Name:      "set",
						Usage:     "update the schedule fields",
						UsageText: "bwsched schedule set [--days mon-fri] [--start 08:00] [--end 17:30] [--limit 512KB] [--enable|--disable]",
						Action:    scheduleSet,
						Flags:     scheduleSetFlags,
					},
					{
						Name:   "toggle",
						Usage:  "enable or disable the schedule",
						Action: scheduleToggle,
					},
					{
						Name:      "alt",
						Usage:     "set the alternative speed limit",
						UsageText: "bwsched schedule alt <limit>",
						Action:    scheduleAlt,
					},
				},
				Action: scheduleShow,
			},
		},
		Action: status,
	}
	return app.Run(args)
}

func newClient() *bwclient.Client {
	return bwclient.NewClient(daemonAddr, daemonSecret)
}
