// Package logfile owns the append-only TSV log: its epoch header, the
// separator rows that mark discontinuities, and the flush cadence.
//
// A fresh log starts with a header whose first column is the epoch (Unix
// seconds). A restarted daemon reads that epoch back, so record offsets stay
// continuous across restarts, and appends one separator row before its first
// record.
package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dicklesworthstone/reslog/internal/model"
)

// Separator is an all-blank row: one empty cell per column.
const Separator = "\t\t\t\t\t\t\t\t\t\t\t\n"

// Header returns the first line of a log whose epoch is epoch.
func Header(epoch int64) string {
	return strconv.FormatInt(epoch, 10) + "\t" + strings.Join(model.Columns, "\t") + "\n"
}

// File is the destination a Writer appends to.
type File interface {
	io.Writer
	Sync() error
	Close() error
}

// Writer appends records and flushes durably every flushRate records.
// It is not safe for concurrent use.
type Writer struct {
	file   File
	buf    *bufio.Writer
	line   []byte
	logger *slog.Logger

	epoch     int64
	resumed   bool
	flushRate int
	pending   int
	flushes   int
	closed    bool
}

func newWriter(file File, epoch int64, flushRate int, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if flushRate < 1 {
		flushRate = 1
	}
	return &Writer{
		file:      file,
		buf:       bufio.NewWriter(file),
		line:      make([]byte, 0, 128),
		logger:    logger,
		epoch:     epoch,
		flushRate: flushRate,
	}
}

// Open creates the log at path, or resumes it if it already has a header.
// now supplies the epoch of a new log.
func Open(path string, now time.Time, flushRate int, logger *slog.Logger) (*Writer, error) {
	epoch, exists, needsNewline, err := inspect(path)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	if !exists {
		epoch = now.Unix()
	}
	w := newWriter(file, epoch, flushRate, logger)
	if exists {
		w.resumed = true
		if needsNewline {
			err = w.writeString("\n")
		}
		if err == nil {
			err = w.writeString(Separator)
		}
		w.logger.Info("resuming log", "path", path, "epoch", epoch)
	} else {
		err = w.writeString(Header(epoch))
		w.logger.Info("created log", "path", path, "epoch", epoch)
	}
	if err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

// inspect reads the epoch of an existing log. A missing or empty file
// counts as absent. needsNewline reports a torn final line.
func inspect(path string) (epoch int64, exists, needsNewline bool, err error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("reading log header: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, false, false, fmt.Errorf("reading log header: %w", err)
	}
	if info.Size() == 0 {
		return 0, false, false, nil
	}

	header, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, false, false, fmt.Errorf("reading log header: %w", err)
	}
	first, _, _ := strings.Cut(strings.TrimRight(header, "\n"), "\t")
	epoch, err = strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, false, false, fmt.Errorf("log %s has no epoch in its header: %w", path, err)
	}

	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return 0, false, false, fmt.Errorf("reading log tail: %w", err)
	}
	return epoch, true, last[0] != '\n', nil
}

// Epoch returns the log's epoch in Unix seconds.
func (w *Writer) Epoch() int64 { return w.epoch }

// Resumed reports whether the log existed before this run.
func (w *Writer) Resumed() bool { return w.resumed }

// Flushes returns how many durable flushes have completed.
func (w *Writer) Flushes() int { return w.flushes }

// Offset converts a tick time into whole seconds since the epoch.
func (w *Writer) Offset(t time.Time) uint64 {
	seconds := t.Unix() - w.epoch
	if seconds < 0 {
		return 0
	}
	return uint64(seconds)
}

// WriteRecord appends one record, flushing durably every flushRate records.
func (w *Writer) WriteRecord(rec model.Record) error {
	w.line = rec.AppendTSV(w.line[:0])
	if _, err := w.buf.Write(w.line); err != nil {
		return fmt.Errorf("writing log record: %w", err)
	}
	w.pending++
	if w.pending >= w.flushRate {
		w.pending = 0
		return w.Flush()
	}
	return nil
}

// WriteSeparator appends a blank row marking a gap in sampling.
func (w *Writer) WriteSeparator() error {
	return w.writeString(Separator)
}

// Flush writes buffered rows and syncs them to disk.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flushing log: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("syncing log: %w", err)
	}
	w.flushes++
	w.logger.Debug("log flushed", "flushes", w.flushes)
	return nil
}

// Close flushes and closes the log. Further calls are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	flushErr := w.Flush()
	closeErr := w.file.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("closing log: %w", closeErr)
	}
	return errors.Join(flushErr, closeErr)
}

func (w *Writer) writeString(s string) error {
	if _, err := w.buf.WriteString(s); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}
