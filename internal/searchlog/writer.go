// Package searchlog writes the daily search and error audit files, prunes old
// files and serves their tails to operators.
package searchlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DateLayout names each daily file.
const DateLayout = "2006-01-02"

// DailyWriter appends to <dir>/<prefix>-YYYY-MM-DD.log, switching files when the
// calendar day changes in loc. It implements zapcore.WriteSyncer.
type DailyWriter struct {
	dir    string
	prefix string
	loc    *time.Location
	clock  func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyWriter creates a writer. The directory is created on first write.
func NewDailyWriter(dir, prefix string, loc *time.Location, clock func() time.Time) *DailyWriter {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &DailyWriter{dir: dir, prefix: prefix, loc: loc, clock: clock}
}

// FileName returns the file name for day.
func FileName(prefix, day string) string {
	return fmt.Sprintf("%s-%s.log", prefix, day)
}

// Write implements io.Writer.
func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	day := w.clock().In(w.loc).Format(DateLayout)
	if w.file == nil || day != w.day {
		if err := w.rotateLocked(day); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

func (w *DailyWriter) rotateLocked(day string) error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(w.dir, FileName(w.prefix, day)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	w.file = f
	w.day = day
	return nil
}

// Sync implements zapcore.WriteSyncer.
func (w *DailyWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the current file.
func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
