package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/warpdl/bandwidth/pkg/bwclient"
	"github.com/warpdl/bandwidth/pkg/throttle"
)

var (
	toggleLimit bool

	limitFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "toggle, t",
			Usage:       "flip between unlimited and the last custom limit",
			Destination: &toggleLimit,
		},
	}
)

func limit(ctx *cli.Context) error {
	c := newClient()
	if toggleLimit {
		res, err := c.ToggleLimit()
		if err != nil {
			return err
		}
		printLimit(res)
		return nil
	}

	arg := ctx.Args().First()
	if arg == "" {
		res, err := c.GetLimit()
		if err != nil {
			return err
		}
		printLimit(res)
		return nil
	}

	n, err := throttle.ParseLimit(arg)
	if err != nil {
		return err
	}
	res, err := c.SetLimit(n)
	if err != nil {
		return err
	}
	printLimit(res)
	return nil
}

func printLimit(l *bwclient.Limit) {
	fmt.Printf("Manual limit:    %s\n", throttle.FormatLimit(l.ManualLimit))
	fmt.Printf("Effective limit: %s\n", throttle.FormatLimit(l.EffectiveLimit))
	if l.LastCustom > 0 {
		fmt.Printf("Last custom:     %s\n", throttle.FormatLimit(l.LastCustom))
	}
}
