package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/warpdl/bandwidth/cmd"
	"github.com/warpdl/bandwidth/pkg/bwclient"
	"github.com/warpdl/bandwidth/pkg/logger"
)

func main() {
	var (
		listen = flag.String("listen", bwclient.DefaultAddr, "loopback address to serve the RPC interface on")
		db     = flag.String("db", "", "path of the settings database (default: user config dir)")
		secret = flag.String("secret", os.Getenv("BWSCHED_SECRET"), "shared secret for daemon authentication")
	)
	flag.Parse()

	l := logger.NewStandardLogger(log.Default())
	if err := cmd.RunDaemon(context.Background(), l, *listen, *db, *secret); err != nil {
		fmt.Println("bwschedd:", err.Error())
		os.Exit(1)
	}
}
