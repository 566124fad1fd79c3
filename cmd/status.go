package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

func status(_ *cli.Context) error {
	c := newClient()
	v, err := c.GetVersion()
	if err != nil {
		return err
	}
	st, err := c.GetStatus()
	if err != nil {
		return err
	}
	fmt.Printf("bwsched daemon %s at %s\n\n", v.Version, daemonAddr)
	printLimit(&st.Limit)
	fmt.Println()
	printSchedule(&st.Schedule)
	return nil
}
