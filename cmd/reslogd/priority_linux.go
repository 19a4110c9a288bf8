package main

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

// lowerPriority renices the daemon so sampling yields to real work.
func lowerPriority(nice int, logger *slog.Logger) {
	if nice == 0 {
		return
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, nice); err != nil {
		logger.Warn("could not set process priority", "nice", nice, "error", err)
	}
}
