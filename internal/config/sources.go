package config

import (
	"fmt"
	"path/filepath"

	"github.com/Dicklesworthstone/reslog/internal/counter"
)

// Sources maps each counter to the file backing it. Empty disables a
// counter; Disk, NetRx and NetTx default from Drive and Interface.
type Sources struct {
	Stat        string `yaml:"stat"`
	MemInfo     string `yaml:"meminfo"`
	Temp        string `yaml:"temp"`
	Fan         string `yaml:"fan"`
	BatteryFull string `yaml:"battery_full"`
	BatteryNow  string `yaml:"battery_now"`
	Current     string `yaml:"current"`
	Energy      string `yaml:"energy"`
	Disk        string `yaml:"disk"`
	NetRx       string `yaml:"net_rx"`
	NetTx       string `yaml:"net_tx"`
}

func DefaultSources() Sources {
	return Sources{
		Stat:        "/proc/stat",
		MemInfo:     "/proc/meminfo",
		Temp:        "/sys/class/thermal/thermal_zone0/temp",
		Fan:         "/sys/class/hwmon/hwmon0/fan1_input",
		BatteryFull: "/sys/class/power_supply/BAT0/charge_full",
		BatteryNow:  "/sys/class/power_supply/BAT0/charge_now",
		Current:     "/sys/class/power_supply/BAT0/current_now",
		Energy:      "/sys/class/powercap/intel-rapl/intel-rapl:0/energy_uj",
	}
}

func (s *Sources) field(name string) *string {
	switch name {
	case "stat":
		return &s.Stat
	case "meminfo":
		return &s.MemInfo
	case "temp":
		return &s.Temp
	case "fan":
		return &s.Fan
	case "battery_full":
		return &s.BatteryFull
	case "battery_now":
		return &s.BatteryNow
	case "current":
		return &s.Current
	case "energy":
		return &s.Energy
	case "disk":
		return &s.Disk
	case "net_rx":
		return &s.NetRx
	case "net_tx":
		return &s.NetTx
	}
	return nil
}

// Set overrides one source by its counter name.
func (s *Sources) Set(name, path string) error {
	f := s.field(name)
	if f == nil {
		return fmt.Errorf("unknown counter source %q", name)
	}
	*f = path
	return nil
}

// Paths resolves the per-device sources from the interface and drive names.
func (s Sources) Paths(iface, drive string) counter.Paths {
	p := counter.Paths{
		Stat:        s.Stat,
		MemInfo:     s.MemInfo,
		Temp:        s.Temp,
		Fan:         s.Fan,
		BatteryFull: s.BatteryFull,
		BatteryNow:  s.BatteryNow,
		Current:     s.Current,
		Energy:      s.Energy,
		Disk:        s.Disk,
		NetRx:       s.NetRx,
		NetTx:       s.NetTx,
	}
	if p.Disk == "" && drive != "" {
		p.Disk = filepath.Join("/sys/block", drive, "stat")
	}
	if iface != "" {
		if p.NetRx == "" {
			p.NetRx = filepath.Join("/sys/class/net", iface, "statistics/rx_bytes")
		}
		if p.NetTx == "" {
			p.NetTx = filepath.Join("/sys/class/net", iface, "statistics/tx_bytes")
		}
	}
	return p
}
