package cmd

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/warpdl/bandwidth/internal/arbiter"
	"github.com/warpdl/bandwidth/internal/scheduler"
	"github.com/warpdl/bandwidth/internal/server"
	"github.com/warpdl/bandwidth/internal/settings"
	"github.com/warpdl/bandwidth/pkg/bwclient"
	"github.com/warpdl/bandwidth/pkg/logger"
	"github.com/warpdl/bandwidth/pkg/throttle"
)

var (
	listenAddr string
	dbPath     string

	daemonFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "listen, L",
			Usage:       "loopback address to serve the RPC interface on",
			Value:       bwclient.DefaultAddr,
			Destination: &listenAddr,
		},
		cli.StringFlag{
			Name:        "db",
			Usage:       "path of the settings database (default: user config dir)",
			Destination: &dbPath,
		},
	}
)

func daemon(_ *cli.Context) error {
	l := logger.NewStandardLogger(log.Default())
	return RunDaemon(context.Background(), l, listenAddr, dbPath, daemonSecret)
}

// RunDaemon wires the settings store, scheduler, arbiter and RPC server
// together and serves until ctx is cancelled or a termination signal
// arrives. The throttle engine created here is what embedding applications
// wrap their transfers with.
func RunDaemon(ctx context.Context, l logger.Logger, addr, db, secret string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := settings.Open(db, l)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := store.Load()
	if err != nil {
		return err
	}

	engine := throttle.NewLimiter(state.ManualLimit)
	proc := scheduler.New(l)
	arb := arbiter.New(proc, engine, store, l, state.ManualLimit, state.LastCustom, state.Schedule)

	// Teardown order matters: the scheduler must stop publishing before the
	// arbiter's debouncers are flushed and stopped, or a final active=false
	// publish would re-arm them against a store that closes right after.
	defer arb.Close()
	defer proc.Stop()

	rs := server.NewRPCServer(&server.RPCConfig{Secret: secret, Version: version}, arb, proc, l)
	defer rs.Close()

	srv := &http.Server{
		Addr:    addr,
		Handler: rs.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	l.Info("serving on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		l.Error("shutdown: %s", err.Error())
	}
	return nil
}
