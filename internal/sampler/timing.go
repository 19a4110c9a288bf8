package sampler

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Per-iteration cost in microseconds, from waking up to the record being
// handed off. Anything above a minute is clamped.
const (
	costMin    = 1
	costMax    = 60_000_000
	costSigFig = 3
)

type timing struct {
	hist *hdrhistogram.Histogram
}

func newTiming() *timing {
	return &timing{hist: hdrhistogram.New(costMin, costMax, costSigFig)}
}

func (t *timing) record(d time.Duration) {
	us := d.Microseconds()
	if us < costMin {
		us = costMin
	}
	if us > costMax {
		us = costMax
	}
	t.hist.RecordValue(us)
}

// CostStats summarizes how long iterations spent reading and writing,
// excluding the interval sleep.
type CostStats struct {
	Count int64
	P50   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Cost returns the sampling cost distribution so far.
func (s *Sampler) Cost() CostStats {
	h := s.cost.hist
	if h.TotalCount() == 0 {
		return CostStats{}
	}
	return CostStats{
		Count: h.TotalCount(),
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
	}
}
