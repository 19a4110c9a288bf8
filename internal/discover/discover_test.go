package discover

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
)

func TestPickInterface(t *testing.T) {
	counters := []net.IOCountersStat{
		{Name: "lo", BytesRecv: 1 << 40, BytesSent: 1 << 40},
		{Name: "eth0", BytesRecv: 1000, BytesSent: 10},
		{Name: "wlp1s0", BytesRecv: 90_000, BytesSent: 4_000},
	}
	got, err := pickInterface(counters)
	if err != nil {
		t.Fatalf("pickInterface: %v", err)
	}
	if got != "wlp1s0" {
		t.Errorf("picked %q, want wlp1s0", got)
	}
}

func TestPickInterfaceOnlyLoopback(t *testing.T) {
	_, err := pickInterface([]net.IOCountersStat{{Name: "lo", BytesRecv: 5}})
	if !errors.Is(err, ErrNoInterface) {
		t.Errorf("error = %v, want ErrNoInterface", err)
	}
}

func TestPickDrive(t *testing.T) {
	counters := map[string]disk.IOCountersStat{
		"loop0":     {ReadBytes: 1 << 40},
		"sda":       {ReadBytes: 5000, WriteBytes: 5000},
		"sda1":      {ReadBytes: 9000, WriteBytes: 9000},
		"nvme0n1":   {ReadBytes: 80_000, WriteBytes: 1},
		"nvme0n1p2": {ReadBytes: 90_000},
		"zram0":     {WriteBytes: 1 << 40},
	}
	whole := map[string]bool{"loop0": true, "sda": true, "nvme0n1": true, "zram0": true}
	got, err := pickDrive(counters, func(name string) bool { return whole[name] })
	if err != nil {
		t.Fatalf("pickDrive: %v", err)
	}
	if got != "nvme0n1" {
		t.Errorf("picked %q, want nvme0n1", got)
	}
}

func TestPickDriveTieIsStable(t *testing.T) {
	counters := map[string]disk.IOCountersStat{
		"sdb": {ReadBytes: 10},
		"sda": {ReadBytes: 10},
		"sdc": {ReadBytes: 10},
	}
	for i := 0; i < 20; i++ {
		got, err := pickDrive(counters, func(string) bool { return true })
		if err != nil || got != "sda" {
			t.Fatalf("pickDrive = %q, %v; want sda", got, err)
		}
	}
}

func TestPickDriveNone(t *testing.T) {
	_, err := pickDrive(map[string]disk.IOCountersStat{"sda": {}}, func(string) bool { return true })
	if !errors.Is(err, ErrNoDrive) {
		t.Errorf("error = %v, want ErrNoDrive", err)
	}
}
