// Package counter reads raw numeric values out of kernel and hardware
// files (procfs, sysfs). Sources are opened once and re-read in place on
// every tick; reopening virtual files each second costs more than reading
// them.
package counter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Kind says whether a counter is a running total or a point reading.
type Kind int

const (
	// Instantaneous readings carry no running-total semantics.
	Instantaneous Kind = iota
	// Cumulative counters are lifetime totals; rates come from differencing.
	Cumulative
)

func (k Kind) String() string {
	if k == Cumulative {
		return "cumulative"
	}
	return "instantaneous"
}

// bufSize covers /proc/meminfo and the aggregate line of /proc/stat.
const bufSize = 4096

// Source is a kept-open counter file with a field cursor.
type Source struct {
	Name string
	Path string
	Kind Kind

	r      io.ReaderAt
	closer io.Closer
	logger *slog.Logger

	buf     []byte
	n       int
	pos     int
	loaded  bool
	failing bool
}

// Open opens path once for the lifetime of the Source and performs a first
// read so an unreadable source fails here rather than on the first tick.
// An empty path yields a disabled Source.
func Open(name, path string, kind Kind, logger *slog.Logger) (*Source, error) {
	if path == "" {
		return Disabled(name, kind), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("counter source %s unavailable: %w", name, err)
	}
	s := NewSource(name, kind, file, logger)
	s.Path = path
	s.closer = file
	if err := s.load(); err != nil {
		file.Close()
		return nil, fmt.Errorf("counter source %s unreadable at %s: %w", name, path, err)
	}
	return s, nil
}

// NewSource wraps an already open reader.
func NewSource(name string, kind Kind, r io.ReaderAt, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		Name:   name,
		Kind:   kind,
		r:      r,
		logger: logger,
		buf:    make([]byte, bufSize),
	}
}

// Disabled returns a Source that always reads zero.
func Disabled(name string, kind Kind) *Source {
	return &Source{Name: name, Kind: kind, loaded: true}
}

// Enabled reports whether the Source is backed by a file.
func (s *Source) Enabled() bool { return s.r != nil }

// ReadInstant re-reads the source and returns its first run of digits, or
// zero if there is none.
func (s *Source) ReadInstant() uint64 {
	s.Rewind()
	return s.ReadNth(1)
}

// Rewind re-reads the current content and moves the cursor to the start.
func (s *Source) Rewind() {
	if s.r == nil {
		return
	}
	err := s.load()
	switch {
	case err != nil && !s.failing:
		s.failing = true
		s.logger.Warn("counter source read failed, reporting zero",
			"source", s.Name, "path", s.Path, "error", err)
	case err == nil && s.failing:
		s.failing = false
		s.logger.Info("counter source recovered", "source", s.Name, "path", s.Path)
	}
}

// ReadNth returns the n-th run of digits after the cursor and leaves the
// cursor just past it, so successive calls walk successive fields. Any
// non-digit byte delimits fields. A missing field reads as zero.
func (s *Source) ReadNth(n int) uint64 {
	if !s.loaded {
		s.Rewind()
	}
	content := s.buf[:s.n]
	count := 0
	for i := s.pos; i < len(content); i++ {
		if !isDigit(content[i]) {
			continue
		}
		count++
		var value uint64
		j := i
		for ; j < len(content) && isDigit(content[j]); j++ {
			value = value*10 + uint64(content[j]-'0')
		}
		if count == n {
			s.pos = j
			return value
		}
		i = j
	}
	s.pos = len(content)
	return 0
}

// Close releases the underlying file.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	s.r = nil
	return err
}

func (s *Source) load() error {
	s.pos = 0
	s.loaded = true
	n, err := s.r.ReadAt(s.buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		s.n = 0
		return err
	}
	s.n = n
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
