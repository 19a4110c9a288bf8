// Package fixedpoint renders unsigned counts as tab-delimited decimal text.
//
// Two-decimal values are passed pre-scaled by 100; the formatter never
// multiplies, so truncation happens at the caller. Values up to CacheMax
// are served from a table built once at init so the sampling hot path does
// no general-purpose formatting.
package fixedpoint

import "strconv"

// Places selects how many digits follow the decimal point.
const (
	Int   = 0
	Centi = 2
)

// Delim terminates every formatted field.
const Delim = '\t'

// CacheMax is the largest value served from the precomputed table.
const CacheMax = 10000

var cache [CacheMax + 1][2][]byte

func init() {
	for n := 0; n <= CacheMax; n++ {
		b := strconv.AppendUint(make([]byte, 0, 6), uint64(n), 10)
		cache[n][0] = append(b, Delim)

		frac := n % 100
		b = strconv.AppendUint(make([]byte, 0, 7), uint64(n/100), 10)
		cache[n][1] = append(b, '.', byte('0'+frac/10), byte('0'+frac%10), Delim)
	}
}

// Append appends n followed by Delim to dst. places must be Int or Centi;
// with Centi a decimal point is inserted two digits from the right.
func Append(dst []byte, n uint64, places int) []byte {
	if n <= CacheMax {
		return append(dst, cache[n][places>>1]...)
	}
	return appendDigits(dst, n, places)
}

// Format is Append into a fresh string.
func Format(n uint64, places int) string {
	return string(Append(nil, n, places))
}

// appendDigits extracts digits from the least significant end. It has no
// upper bound on n.
func appendDigits(dst []byte, n uint64, places int) []byte {
	var buf [24]byte
	i := len(buf) - 1
	buf[i] = Delim
	for d := 0; ; d++ {
		if places > 0 && d == places {
			i--
			buf[i] = '.'
		}
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 && d >= places {
			break
		}
	}
	return append(dst, buf[i:]...)
}
