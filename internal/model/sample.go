package model

import (
	"time"

	"github.com/Dicklesworthstone/reslog/internal/fixedpoint"
	"github.com/Dicklesworthstone/reslog/internal/rate"
)

// Sample is the raw cumulative state carried from one tick to the next.
type Sample struct {
	Timestamp time.Time
	CPU       rate.CPUTimes
	Energy    uint64 // microjoules
	DiskRead  uint64 // sectors
	DiskWrite uint64 // sectors
	NetRx     uint64 // bytes
	NetTx     uint64 // bytes
}

// Record is one log row. Centi fields hold the value multiplied by 100 and
// are written with two decimals.
type Record struct {
	Offset      uint64 // seconds since the log epoch
	RAMCenti    uint64 // percent
	Temp        uint64 // degrees Celsius
	Fan         uint64 // RPM
	ChargeCenti uint64 // percent
	Drain       uint64 // mA
	Down        uint64 // bytes/s
	Up          uint64 // bytes/s
	Read        uint64 // sectors/s
	Write       uint64 // sectors/s
	PowerCenti  uint64 // watts
	CPUCenti    uint64 // percent
}

// Columns names the record fields after the leading epoch column of the header.
var Columns = []string{"ram", "temp", "fan", "charge", "drain", "down", "up", "read", "write", "power", "cpu"}

// AppendTSV appends the record as a tab-separated row terminated by '\n'.
func (r Record) AppendTSV(dst []byte) []byte {
	dst = fixedpoint.Append(dst, r.Offset, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.RAMCenti, fixedpoint.Centi)
	dst = fixedpoint.Append(dst, r.Temp, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.Fan, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.ChargeCenti, fixedpoint.Centi)
	dst = fixedpoint.Append(dst, r.Drain, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.Down, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.Up, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.Read, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.Write, fixedpoint.Int)
	dst = fixedpoint.Append(dst, r.PowerCenti, fixedpoint.Centi)
	dst = fixedpoint.Append(dst, r.CPUCenti, fixedpoint.Centi)
	return append(dst, '\n')
}
