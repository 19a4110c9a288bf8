// Package shutdown converts interrupt signals into cancellation.
//
// The first SIGINT or SIGTERM cancels the returned context; the sampler
// notices at its next iteration boundary and the daemon flushes and closes
// the log on its way out. A second signal exits the process immediately
// without flushing.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ForcedExitCode is the status used when a second interrupt arrives.
const ForcedExitCode = 130

// Watch installs the signal handlers. The returned release function stops
// watching and must be called once the daemon has shut down.
func Watch(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	ctx, release := watch(parent, signals, os.Exit, logger)
	return ctx, func() {
		signal.Stop(signals)
		release()
	}
}

func watch(parent context.Context, signals <-chan os.Signal, exit func(int), logger *slog.Logger) (context.Context, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-signals:
			logger.Info("interrupt received, stopping after the current record", "signal", sig.String())
			cancel()
		case <-done:
			return
		}
		select {
		case sig := <-signals:
			logger.Warn("second interrupt, exiting without flushing", "signal", sig.String())
			exit(ForcedExitCode)
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			cancel()
			close(done)
		})
	}
}
