package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dicklesworthstone/reslog/internal/clock"
	"github.com/Dicklesworthstone/reslog/internal/counter"
	"github.com/Dicklesworthstone/reslog/internal/model"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// recorder stands in for the log: separators are recorded as nil entries.
type recorder struct {
	rows    []*model.Record
	failErr error
}

func (r *recorder) WriteRecord(rec model.Record) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.rows = append(r.rows, &rec)
	return nil
}

func (r *recorder) WriteSeparator() error {
	r.rows = append(r.rows, nil)
	return nil
}

func (r *recorder) Offset(t time.Time) uint64 {
	return uint64(t.Unix() - epoch.Unix())
}

func (r *recorder) records() []model.Record {
	var out []model.Record
	for _, row := range r.rows {
		if row != nil {
			out = append(out, *row)
		}
	}
	return out
}

func (r *recorder) separators() int {
	n := 0
	for _, row := range r.rows {
		if row == nil {
			n++
		}
	}
	return n
}

// counters is a directory of synthetic procfs/sysfs files.
type counters struct {
	t     *testing.T
	dir   string
	paths counter.Paths
}

func newCounters(t *testing.T) *counters {
	t.Helper()
	dir := t.TempDir()
	c := &counters{t: t, dir: dir}
	c.paths = counter.Paths{
		Stat:        filepath.Join(dir, "stat"),
		MemInfo:     filepath.Join(dir, "meminfo"),
		Temp:        filepath.Join(dir, "temp"),
		Fan:         filepath.Join(dir, "fan1_input"),
		BatteryFull: filepath.Join(dir, "charge_full"),
		BatteryNow:  filepath.Join(dir, "charge_now"),
		Current:     filepath.Join(dir, "current_now"),
		Energy:      filepath.Join(dir, "energy_uj"),
		Disk:        filepath.Join(dir, "disk_stat"),
		NetRx:       filepath.Join(dir, "rx_bytes"),
		NetTx:       filepath.Join(dir, "tx_bytes"),
	}
	c.cpu(100, 7, 50, 1000)
	c.mem(16_000_000, 4_000_000)
	c.set(c.paths.Temp, 48500)
	c.set(c.paths.Fan, 2300)
	c.set(c.paths.BatteryFull, 5_000_000)
	c.set(c.paths.BatteryNow, 2_500_000)
	c.set(c.paths.Current, 812_000)
	c.set(c.paths.Energy, 0)
	c.disk(1000, 500)
	c.set(c.paths.NetRx, 100)
	c.set(c.paths.NetTx, 0)
	return c
}

func (c *counters) write(path, content string) {
	c.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		c.t.Fatal(err)
	}
}

func (c *counters) set(path string, value uint64) {
	c.write(path, fmt.Sprintf("%d\n", value))
}

func (c *counters) cpu(user, nice, system, idle uint64) {
	c.write(c.paths.Stat, fmt.Sprintf("cpu  %d %d %d %d 23 0 5 0 0 0\ncpu0 1 2 3 4 5 6 7 8 9 10\n", user, nice, system, idle))
}

func (c *counters) mem(total, available uint64) {
	c.write(c.paths.MemInfo, fmt.Sprintf("MemTotal:       %d kB\nMemFree:         1071888 kB\nMemAvailable:    %d kB\n", total, available))
}

func (c *counters) disk(sectorsRead, sectorsWritten uint64) {
	c.write(c.paths.Disk, fmt.Sprintf("  446216  13150 %d  160436  232430  94710 %d  1210860        0   196248  1371324\n", sectorsRead, sectorsWritten))
}

func (c *counters) open() *counter.Set {
	c.t.Helper()
	set, err := counter.OpenSet(c.paths, discardLogger())
	if err != nil {
		c.t.Fatalf("OpenSet: %v", err)
	}
	c.t.Cleanup(func() { set.Close() })
	return set
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSampler(t *testing.T, c *counters, out RecordWriter, opts Options) (*Sampler, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	opts.Clock = fake
	opts.Logger = discardLogger()
	return New(c.open(), out, opts), fake
}

func TestStepComputesRecord(t *testing.T) {
	c := newCounters(t)
	out := &recorder{}
	s, _ := newTestSampler(t, c, out, Options{Interval: 500 * time.Millisecond, BatteryPoll: 100})

	c.cpu(110, 7, 55, 1085)
	c.mem(16_000_000, 3_000_000)
	c.set(c.paths.NetRx, 150)
	c.set(c.paths.NetTx, 2048)
	c.disk(1100, 520)
	c.set(c.paths.Energy, 3_750_000)

	if err := s.step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	recs := out.records()
	if len(recs) != 1 {
		t.Fatalf("wrote %d records, want 1", len(recs))
	}
	want := model.Record{
		Offset:      0,
		RAMCenti:    8125,
		Temp:        48,
		Fan:         2300,
		ChargeCenti: 5000,
		Drain:       812,
		Down:        100,
		Up:          4096,
		Read:        200,
		Write:       40,
		PowerCenti:  750,
		CPUCenti:    1500,
	}
	if recs[0] != want {
		t.Errorf("record = %+v\nwant     %+v", recs[0], want)
	}
	if out.separators() != 0 {
		t.Errorf("wrote %d separators on a normal tick", out.separators())
	}
}

func TestStepCarriesPreviousSample(t *testing.T) {
	c := newCounters(t)
	out := &recorder{}
	s, _ := newTestSampler(t, c, out, Options{Interval: time.Second})

	for i, rx := range []uint64{1100, 3100, 3100} {
		c.set(c.paths.NetRx, rx)
		if err := s.step(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	recs := out.records()
	for i, want := range []uint64{1000, 2000, 0} {
		if recs[i].Down != want {
			t.Errorf("record %d down = %d, want %d", i, recs[i].Down, want)
		}
		if recs[i].Offset != uint64(i) {
			t.Errorf("record %d offset = %d, want %d", i, recs[i].Offset, i)
		}
	}
}

func TestCounterResetClampsToZero(t *testing.T) {
	c := newCounters(t)
	out := &recorder{}
	s, _ := newTestSampler(t, c, out, Options{Interval: time.Second})

	c.set(c.paths.NetRx, 5)
	if err := s.step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := out.records()[0].Down; got != 0 {
		t.Errorf("down after counter reset = %d, want 0", got)
	}
}

func TestGapDetection(t *testing.T) {
	tests := []struct {
		name       string
		pause      time.Duration
		separators int
	}{
		{"no pause", 0, 0},
		{"exactly three intervals", 2 * time.Second, 0},
		{"suspended", 5 * time.Second, 1},
		{"suspended overnight", 8 * time.Hour, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := newCounters(t)
			out := &recorder{}
			s, fake := newTestSampler(t, c, out, Options{Interval: time.Second})
			ctx := context.Background()

			if err := s.step(ctx); err != nil {
				t.Fatal(err)
			}
			fake.Advance(test.pause)
			if err := s.step(ctx); err != nil {
				t.Fatal(err)
			}
			if got := out.separators(); got != test.separators {
				t.Errorf("separators = %d, want %d", got, test.separators)
			}
			if test.separators == 1 && out.rows[1] != nil {
				t.Error("separator not written before the post-gap record")
			}
			if s.Gaps() != uint64(test.separators) {
				t.Errorf("Gaps() = %d, want %d", s.Gaps(), test.separators)
			}
		})
	}
}

func TestBatteryReducedCadence(t *testing.T) {
	c := newCounters(t)
	out := &recorder{}
	s, _ := newTestSampler(t, c, out, Options{Interval: time.Second, BatteryPoll: 3})

	c.set(c.paths.BatteryNow, 1_000_000)
	c.set(c.paths.Current, 500_000)
	for i := 0; i < 4; i++ {
		if err := s.step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	recs := out.records()
	for i, want := range []uint64{5000, 5000, 2000, 2000} {
		if recs[i].ChargeCenti != want {
			t.Errorf("record %d charge = %d, want %d", i, recs[i].ChargeCenti, want)
		}
	}
	if recs[1].Drain != 812 || recs[2].Drain != 500 {
		t.Errorf("drain = %d then %d, want 812 then 500", recs[1].Drain, recs[2].Drain)
	}
}

func TestDisabledSourcesReportZero(t *testing.T) {
	c := newCounters(t)
	c.paths.BatteryFull = ""
	c.paths.BatteryNow = ""
	c.paths.Current = ""
	c.paths.Fan = ""
	out := &recorder{}
	s, _ := newTestSampler(t, c, out, Options{Interval: time.Second, BatteryPoll: 1})

	if err := s.step(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := out.records()[0]
	if rec.ChargeCenti != 0 || rec.Drain != 0 || rec.Fan != 0 {
		t.Errorf("disabled sources produced %+v", rec)
	}
}

func TestRunStopsBetweenIterations(t *testing.T) {
	c := newCounters(t)
	out := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := 0
	s, fake := newTestSampler(t, c, out, Options{
		Interval: time.Second,
		Observer: func(model.Record) {
			seen++
			if seen == 3 {
				cancel()
			}
		},
	})

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(out.records()); got != 3 {
		t.Errorf("wrote %d records, want 3", got)
	}
	if s.Records() != 3 {
		t.Errorf("Records() = %d, want 3", s.Records())
	}
	if fake.Sleeps() != 3 {
		t.Errorf("slept %d times, want 3", fake.Sleeps())
	}
	if s.Cost().Count != 3 {
		t.Errorf("cost histogram holds %d samples, want 3", s.Cost().Count)
	}
}

func TestRunReturnsWriteError(t *testing.T) {
	c := newCounters(t)
	diskFull := errors.New("no space left on device")
	out := &recorder{failErr: diskFull}
	s, _ := newTestSampler(t, c, out, Options{Interval: time.Second})

	if err := s.Run(context.Background()); !errors.Is(err, diskFull) {
		t.Errorf("Run error = %v, want %v", err, diskFull)
	}
}

func TestDefaultBatteryPoll(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     int
	}{
		{time.Second, 10},
		{2 * time.Second, 5},
		{500 * time.Millisecond, 20},
		{time.Minute, 1},
	}
	for _, test := range tests {
		if got := DefaultBatteryPoll(test.interval); got != test.want {
			t.Errorf("DefaultBatteryPoll(%v) = %d, want %d", test.interval, got, test.want)
		}
	}
}
