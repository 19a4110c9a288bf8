//go:build !linux

package main

import "log/slog"

func lowerPriority(nice int, logger *slog.Logger) {
	if nice != 0 {
		logger.Debug("process priority unchanged on this platform", "nice", nice)
	}
}
