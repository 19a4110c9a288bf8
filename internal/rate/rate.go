// Package rate turns pairs of counter readings into per-second rates and
// percentages. Every result is truncated toward zero and every division is
// guarded: a zero denominator yields 0.
//
// Cumulative counters that go backwards (interface reset, driver reload,
// 32-bit wrap) are clamped: the interval contributes a delta of 0.
package rate

import (
	"math"
	"math/bits"
)

const microsPerSecond = 1_000_000

// Delta returns cur-prev, or 0 if the counter decreased.
func Delta(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// PerSecond converts a cumulative counter delta observed over elapsedMicros
// into units per second.
func PerSecond(prev, cur, elapsedMicros uint64) uint64 {
	return mulDiv(Delta(prev, cur), microsPerSecond, elapsedMicros)
}

// PerSecondCenti is PerSecond scaled by 100 for two-decimal fields.
func PerSecondCenti(prev, cur, elapsedMicros uint64) uint64 {
	return mulDiv(Delta(prev, cur), 100*microsPerSecond, elapsedMicros)
}

// PowerCenti converts an energy counter in microjoules into average watts
// over elapsedMicros, scaled by 100. One microjoule per microsecond is one watt.
func PowerCenti(prevMicrojoules, curMicrojoules, elapsedMicros uint64) uint64 {
	return mulDiv(Delta(prevMicrojoules, curMicrojoules), 100, elapsedMicros)
}

// PercentCenti returns 100*part/whole scaled by 100.
func PercentCenti(part, whole uint64) uint64 {
	return mulDiv(part, 100*100, whole)
}

// CPUTimes holds the leading jiffie buckets of the aggregate /proc/stat line.
type CPUTimes struct {
	User   uint64
	Nice   uint64
	System uint64
	Idle   uint64
}

// Busy sums the buckets counted as CPU work.
func (c CPUTimes) Busy() uint64 { return c.User + c.Nice + c.System }

// CPUCenti returns the busy share of the interval between two readings as a
// percentage scaled by 100.
func CPUCenti(prev, cur CPUTimes) uint64 {
	busy := Delta(prev.Busy(), cur.Busy())
	idle := Delta(prev.Idle, cur.Idle)
	total := busy + idle
	if total < busy {
		return 0
	}
	return PercentCenti(busy, total)
}

// mulDiv computes a*b/c without intermediate overflow. It saturates when the
// quotient does not fit in 64 bits.
func mulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, c)
	return q
}
