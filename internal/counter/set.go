package counter

import (
	"errors"
	"log/slog"
)

// Paths names the file backing each counter. An empty path disables that
// counter.
type Paths struct {
	Stat        string
	MemInfo     string
	Temp        string
	Fan         string
	BatteryFull string
	BatteryNow  string
	Current     string
	Energy      string
	Disk        string
	NetRx       string
	NetTx       string
}

// Set is every counter the sampler reads, opened together at startup.
type Set struct {
	Stat        *Source
	MemInfo     *Source
	Temp        *Source
	Fan         *Source
	BatteryFull *Source
	BatteryNow  *Source
	Current     *Source
	Energy      *Source
	Disk        *Source
	NetRx       *Source
	NetTx       *Source
}

type slot struct {
	name string
	path string
	kind Kind
	dst  **Source
}

func (s *Set) slots(p Paths) []slot {
	return []slot{
		{"stat", p.Stat, Cumulative, &s.Stat},
		{"meminfo", p.MemInfo, Instantaneous, &s.MemInfo},
		{"temp", p.Temp, Instantaneous, &s.Temp},
		{"fan", p.Fan, Instantaneous, &s.Fan},
		{"battery_full", p.BatteryFull, Instantaneous, &s.BatteryFull},
		{"battery_now", p.BatteryNow, Instantaneous, &s.BatteryNow},
		{"current", p.Current, Instantaneous, &s.Current},
		{"energy", p.Energy, Cumulative, &s.Energy},
		{"disk", p.Disk, Cumulative, &s.Disk},
		{"net_rx", p.NetRx, Cumulative, &s.NetRx},
		{"net_tx", p.NetTx, Cumulative, &s.NetTx},
	}
}

// OpenSet opens every configured source. The first one that cannot be
// opened aborts startup; sources already opened are closed again.
func OpenSet(p Paths, logger *slog.Logger) (*Set, error) {
	set := &Set{}
	for _, sl := range set.slots(p) {
		src, err := Open(sl.name, sl.path, sl.kind, logger)
		if err != nil {
			set.Close()
			return nil, err
		}
		*sl.dst = src
	}
	return set, nil
}

// All returns the sources in a fixed order.
func (s *Set) All() []*Source {
	var out []*Source
	for _, sl := range s.slots(Paths{}) {
		if *sl.dst != nil {
			out = append(out, *sl.dst)
		}
	}
	return out
}

// Close closes every open source.
func (s *Set) Close() error {
	var errs []error
	for _, src := range s.All() {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
