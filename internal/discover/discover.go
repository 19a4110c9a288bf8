// Package discover picks the network interface and block device to log
// when the configuration names neither: the busiest one since boot.
package discover

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
)

var (
	ErrNoInterface = errors.New("no network interface with traffic found")
	ErrNoDrive     = errors.New("no block device with I/O found")
)

// Interface returns the non-loopback interface that has moved the most bytes.
func Interface() (string, error) {
	counters, err := net.IOCounters(true)
	if err != nil {
		return "", err
	}
	return pickInterface(counters)
}

func pickInterface(counters []net.IOCountersStat) (string, error) {
	var best string
	var bestBytes uint64
	for _, c := range counters {
		if c.Name == "lo" {
			continue
		}
		total := c.BytesRecv + c.BytesSent
		if total > bestBytes {
			best, bestBytes = c.Name, total
		}
	}
	if best == "" {
		return "", ErrNoInterface
	}
	return best, nil
}

// Drive returns the whole disk (not a partition) with the most bytes
// transferred.
func Drive() (string, error) {
	counters, err := disk.IOCounters()
	if err != nil {
		return "", err
	}
	return pickDrive(counters, isWholeDisk)
}

func pickDrive(counters map[string]disk.IOCountersStat, wholeDisk func(string) bool) (string, error) {
	var best string
	var bestBytes uint64
	for name, c := range counters {
		if virtualDevice(name) || !wholeDisk(name) {
			continue
		}
		total := c.ReadBytes + c.WriteBytes
		// Break ties by name so the choice is stable across map order.
		if total > bestBytes || (total == bestBytes && total > 0 && name < best) {
			best, bestBytes = name, total
		}
	}
	if best == "" {
		return "", ErrNoDrive
	}
	return best, nil
}

func virtualDevice(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// isWholeDisk reports whether name has its own /sys/block entry;
// partitions only appear nested under their disk.
func isWholeDisk(name string) bool {
	_, err := os.Stat(filepath.Join("/sys/block", name, "stat"))
	return err == nil
}
