package cliapp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// Lifecycle is a long-running service driven by the CLI runner. Start begins
// background work, Stop shuts it down, Stopped reports whether shutdown has
// completed.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stopped() bool
}

// LifecycleAction instantiates a Lifecycle from parsed CLI flags. The service
// must not start any background work before Start is called.
type LifecycleAction func(ctx *cli.Context) (Lifecycle, error)

var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// LifecycleCmd turns a LifecycleAction into a cli action that runs the
// service until an interrupt signal arrives, then stops it cleanly.
func LifecycleCmd(fn LifecycleAction) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		hostCtx := ctx.Context
		appCtx, appCancel := signal.NotifyContext(hostCtx, interruptSignals...)
		defer appCancel()
		ctx.Context = appCtx

		appLifecycle, err := fn(ctx)
		if err != nil {
			return fmt.Errorf("failed to setup: %w", err)
		}

		if err := appLifecycle.Start(appCtx); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}

		// wait for the interrupt
		<-appCtx.Done()

		stopCtx, stopCancel := signal.NotifyContext(hostCtx, interruptSignals...)
		defer stopCancel()
		if err := appLifecycle.Stop(stopCtx); err != nil {
			return fmt.Errorf("failed to stop: %w", err)
		}
		return nil
	}
}
