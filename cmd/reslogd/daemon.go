package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/reslog/internal/config"
	"github.com/Dicklesworthstone/reslog/internal/counter"
	"github.com/Dicklesworthstone/reslog/internal/discover"
	"github.com/Dicklesworthstone/reslog/internal/logfile"
	"github.com/Dicklesworthstone/reslog/internal/sampler"
	"github.com/Dicklesworthstone/reslog/internal/shutdown"
	"github.com/Dicklesworthstone/reslog/internal/ui"
)

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func runDaemon(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg).With("run", uuid.NewString())
	slog.SetDefault(logger)

	paths, err := resolvePaths(cfg, logger)
	if err != nil {
		return err
	}
	sources, err := counter.OpenSet(paths, logger)
	if err != nil {
		return err
	}
	defer sources.Close()
	for _, src := range sources.All() {
		if src.Enabled() {
			logger.Debug("counter source open", "source", src.Name, "kind", src.Kind.String(), "path", src.Path)
		} else {
			logger.Info("counter source disabled", "source", src.Name)
		}
	}

	lowerPriority(cfg.Nice, logger)

	out, err := logfile.Open(cfg.LogFile, time.Now(), cfg.FlushRate, logger)
	if err != nil {
		return err
	}

	ctx, release := shutdown.Watch(ctx, logger)
	defer release()

	opts := sampler.Options{
		Interval:    cfg.Interval,
		GapFactor:   cfg.GapFactor,
		BatteryPoll: cfg.BatteryPoll,
		Logger:      logger,
	}
	if cfg.Debug {
		opts.Observer = ui.NewConsole(os.Stdout).Show
	}
	s := sampler.New(sources, out, opts)

	runErr := s.Run(ctx)
	if closeErr := out.Close(); closeErr != nil {
		return errors.Join(runErr, closeErr)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("log closed", "path", cfg.LogFile, "flushes", out.Flushes())
	return nil
}

// resolvePaths fills in the drive and interface when the config leaves
// them, and their explicit source paths, unset.
func resolvePaths(cfg config.Config, logger *slog.Logger) (counter.Paths, error) {
	drive, iface := cfg.Drive, cfg.Interface
	if drive == "" && cfg.Sources.Disk == "" {
		found, err := discover.Drive()
		if err != nil {
			return counter.Paths{}, fmt.Errorf("no drive configured: %w", err)
		}
		drive = found
		logger.Info("discovered drive", "drive", drive)
	}
	if iface == "" && (cfg.Sources.NetRx == "" || cfg.Sources.NetTx == "") {
		found, err := discover.Interface()
		if err != nil {
			return counter.Paths{}, fmt.Errorf("no network interface configured: %w", err)
		}
		iface = found
		logger.Info("discovered network interface", "interface", iface)
	}
	return cfg.Sources.Paths(iface, drive), nil
}
