package sampler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/reslog/internal/clock"
	"github.com/Dicklesworthstone/reslog/internal/counter"
	"github.com/Dicklesworthstone/reslog/internal/model"
	"github.com/Dicklesworthstone/reslog/internal/rate"
)

// RecordWriter receives finished rows. logfile.Writer implements it.
type RecordWriter interface {
	WriteRecord(model.Record) error
	WriteSeparator() error
	Offset(time.Time) uint64
}

// Options tune a Sampler. Zero values take the defaults noted per field.
type Options struct {
	Interval    time.Duration // 1s
	GapFactor   int           // 3; a tick gap above GapFactor*Interval marks the log
	BatteryPoll int           // 10s worth of iterations
	Clock       clock.Clock   // clock.Real()
	Logger      *slog.Logger  // slog.Default()
	Observer    func(model.Record)
}

// Sampler reads every counter once per interval and writes one record per
// tick. It runs on a single goroutine and owns its sources.
type Sampler struct {
	Interval    time.Duration
	GapFactor   int
	BatteryPoll int

	clock    clock.Clock
	logger   *slog.Logger
	observer func(model.Record)
	src      *counter.Set
	out      RecordWriter

	prev      model.Sample
	lastStart time.Time

	// Read once at startup.
	memTotal    uint64
	batteryFull uint64

	// Refreshed every BatteryPoll iterations.
	charge       uint64
	current      uint64
	batteryCount int

	records uint64
	gaps    uint64
	cost    *timing
}

var errStopped = errors.New("sampler stopped")

// New builds a Sampler and takes the priming sample, which is not logged,
// so the first interval has a previous value to difference against.
func New(src *counter.Set, out RecordWriter, opts Options) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.GapFactor <= 0 {
		opts.GapFactor = 3
	}
	if opts.BatteryPoll <= 0 {
		opts.BatteryPoll = DefaultBatteryPoll(opts.Interval)
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Sampler{
		Interval:    opts.Interval,
		GapFactor:   opts.GapFactor,
		BatteryPoll: opts.BatteryPoll,
		clock:       opts.Clock,
		logger:      opts.Logger,
		observer:    opts.Observer,
		src:         src,
		out:         out,
		cost:        newTiming(),
	}
	s.prime()
	return s
}

// DefaultBatteryPoll returns how many iterations make up ten seconds.
func DefaultBatteryPoll(interval time.Duration) int {
	n := int(10 * time.Second / interval)
	if n < 1 {
		return 1
	}
	return n
}

func (s *Sampler) prime() {
	s.src.MemInfo.Rewind()
	s.memTotal = s.src.MemInfo.ReadNth(1)
	s.batteryFull = s.src.BatteryFull.ReadInstant()
	s.readBattery()
	now := s.now()
	s.prev = s.readCumulative(now)
	s.lastStart = now
}

// Run samples until ctx is cancelled. Cancellation is honored only between
// iterations; a record that has started reading is always written. Run
// returns nil on cancellation and the first log write error otherwise.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("sampling started",
		"interval", s.Interval, "battery_poll", s.BatteryPoll, "gap_factor", s.GapFactor)
	for {
		if err := s.step(ctx); err != nil {
			s.logSummary()
			if errors.Is(err, errStopped) {
				return nil
			}
			return err
		}
	}
}

// Records returns how many records have been written.
func (s *Sampler) Records() uint64 { return s.records }

// Gaps returns how many suspend gaps have been marked.
func (s *Sampler) Gaps() uint64 { return s.gaps }

func (s *Sampler) step(ctx context.Context) error {
	if ctx.Err() != nil {
		return errStopped
	}

	start := s.now()
	if gap := start.Sub(s.lastStart); gap > time.Duration(s.GapFactor)*s.Interval {
		s.gaps++
		s.logger.Info("sampling gap, marking log", "gap", gap)
		if err := s.out.WriteSeparator(); err != nil {
			return err
		}
	}
	s.lastStart = start

	select {
	case <-ctx.Done():
		return errStopped
	case <-s.clock.After(s.Interval):
	}

	woke := s.now()
	inst := s.readInstant()
	cur := s.readCumulative(start)
	elapsed := s.now().Sub(start)

	rec := s.compute(start, cur, inst, elapsed)
	if err := s.out.WriteRecord(rec); err != nil {
		return err
	}
	s.prev = cur
	s.records++

	if s.observer != nil {
		s.observer(rec)
	}
	s.cost.record(s.now().Sub(woke))
	return nil
}

// now strips the monotonic reading: CLOCK_MONOTONIC stops while the machine
// is suspended and the wall clock does not.
func (s *Sampler) now() time.Time {
	return s.clock.Now().Round(0)
}

type instant struct {
	memAvailable uint64
	temp         uint64
	fan          uint64
}

func (s *Sampler) readInstant() instant {
	mem := s.src.MemInfo
	mem.Rewind()
	inst := instant{
		memAvailable: mem.ReadNth(3),
		temp:         s.src.Temp.ReadInstant(),
		fan:          s.src.Fan.ReadInstant(),
	}

	s.batteryCount++
	if s.batteryCount >= s.BatteryPoll {
		s.readBattery()
		s.batteryCount = 0
	}
	return inst
}

func (s *Sampler) readBattery() {
	s.charge = s.src.BatteryNow.ReadInstant()
	s.current = s.src.Current.ReadInstant()
}

func (s *Sampler) readCumulative(at time.Time) model.Sample {
	stat := s.src.Stat
	stat.Rewind()
	cpu := rate.CPUTimes{
		User:   stat.ReadNth(1),
		Nice:   stat.ReadNth(1),
		System: stat.ReadNth(1),
		Idle:   stat.ReadNth(1),
	}

	// Block stat: field 3 is sectors read, the 4th field after it
	// (field 7) is sectors written.
	disk := s.src.Disk
	disk.Rewind()
	diskRead := disk.ReadNth(3)
	diskWrite := disk.ReadNth(4)

	return model.Sample{
		Timestamp: at,
		CPU:       cpu,
		Energy:    s.src.Energy.ReadInstant(),
		DiskRead:  diskRead,
		DiskWrite: diskWrite,
		NetRx:     s.src.NetRx.ReadInstant(),
		NetTx:     s.src.NetTx.ReadInstant(),
	}
}

func (s *Sampler) compute(start time.Time, cur model.Sample, inst instant, elapsed time.Duration) model.Record {
	var us uint64
	if elapsed > 0 {
		us = uint64(elapsed.Microseconds())
	}
	prev := s.prev
	return model.Record{
		Offset:      s.out.Offset(start),
		RAMCenti:    rate.PercentCenti(rate.Delta(inst.memAvailable, s.memTotal), s.memTotal),
		Temp:        inst.temp / 1000,
		Fan:         inst.fan,
		ChargeCenti: rate.PercentCenti(s.charge, s.batteryFull),
		Drain:       s.current / 1000,
		Down:        rate.PerSecond(prev.NetRx, cur.NetRx, us),
		Up:          rate.PerSecond(prev.NetTx, cur.NetTx, us),
		Read:        rate.PerSecond(prev.DiskRead, cur.DiskRead, us),
		Write:       rate.PerSecond(prev.DiskWrite, cur.DiskWrite, us),
		PowerCenti:  rate.PowerCenti(prev.Energy, cur.Energy, us),
		CPUCenti:    rate.CPUCenti(prev.CPU, cur.CPU),
	}
}

func (s *Sampler) logSummary() {
	c := s.Cost()
	s.logger.Info("sampling stopped",
		"records", s.records,
		"gaps", s.gaps,
		"cost_p50", c.P50,
		"cost_p99", c.P99,
		"cost_max", c.Max)
}
