package searchlog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Kinds of audit log.
const (
	KindSearch = "search"
	KindError  = "error"
)

var (
	// ErrNoLog means no file exists for the requested day.
	ErrNoLog = errors.New("no log for date")
	// ErrInvalidRequest means the kind or date is malformed.
	ErrInvalidRequest = errors.New("invalid log kind or date")
)

var logFilePattern = regexp.MustCompile(`^(search|error)-(\d{4}-\d{2}-\d{2})\.log$`)

// Logs holds the search and error audit loggers.
type Logs struct {
	Search *zap.Logger
	Error  *zap.Logger

	dir     string
	loc     *time.Location
	writers []*DailyWriter
	errCore zapcore.Core
}

// Options configures audit logging.
type Options struct {
	Dir           string
	Location      *time.Location
	RetentionDays int
	Clock         func() time.Time
}

// Open creates the audit loggers and removes files older than the retention period.
// Cleanup problems are reported through the returned error logger, never as a failure.
func Open(opts Options) (*Logs, error) {
	if opts.Dir == "" {
		return nil, errors.New("log directory is required")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format("2006-01-02 15:04:05"))
	}
	encCfg.CallerKey = ""
	encCfg.StacktraceKey = ""

	searchW := NewDailyWriter(opts.Dir, KindSearch, loc, clock)
	errorW := NewDailyWriter(opts.Dir, KindError, loc, clock)
	searchCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), searchW, zap.InfoLevel)
	errCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), errorW, zap.ErrorLevel)

	l := &Logs{
		Search:  zap.New(searchCore, zap.WithClock(zapClock{clock})),
		Error:   zap.New(errCore, zap.WithClock(zapClock{clock})),
		dir:     opts.Dir,
		loc:     loc,
		writers: []*DailyWriter{searchW, errorW},
		errCore: errCore,
	}
	if opts.RetentionDays > 0 {
		removed, err := Cleanup(opts.Dir, clock().In(loc), opts.RetentionDays)
		if err != nil {
			l.Error.Error("log cleanup failed", zap.Error(err))
		}
		for _, name := range removed {
			l.Search.Info("old log removed", zap.String("file", name))
		}
	}
	return l, nil
}

// Nop returns loggers that discard everything.
func Nop() *Logs {
	return &Logs{Search: zap.NewNop(), Error: zap.NewNop(), errCore: zapcore.NewNopCore()}
}

// Tee returns base with error-level entries also written to the error file.
func (l *Logs) Tee(base *zap.Logger) *zap.Logger {
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, l.errCore)
	}))
}

// Dir returns the log directory.
func (l *Logs) Dir() string {
	return l.dir
}

// Close flushes and closes the files.
func (l *Logs) Close() error {
	_ = l.Search.Sync()
	_ = l.Error.Sync()
	var errs []error
	for _, w := range l.writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

// Cleanup deletes audit files whose date is more than retentionDays before now.
// It returns the names of the removed files.
func Cleanup(dir string, now time.Time, retentionDays int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	today, _ := time.ParseInLocation(DateLayout, now.Format(DateLayout), now.Location())
	cutoff := today.AddDate(0, 0, -retentionDays)
	var removed []string
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := logFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		day, err := time.ParseInLocation(DateLayout, m[2], now.Location())
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, e.Name())
	}
	return removed, errors.Join(errs...)
}

// Tail returns up to n trailing lines of the kind log for date (YYYY-MM-DD).
func Tail(dir, kind, date string, n int) ([]string, error) {
	if kind != KindSearch && kind != KindError {
		return nil, ErrInvalidRequest
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, ErrInvalidRequest
	}
	f, err := os.Open(filepath.Join(dir, FileName(kind, date)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoLog
		}
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		n = 200
	}
	ring := make([]string, 0, n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(ring) == n {
			ring = append(ring[1:], sc.Text())
			continue
		}
		ring = append(ring, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ring, nil
}

type zapClock struct {
	now func() time.Time
}

func (c zapClock) Now() time.Time { return c.now() }

func (c zapClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }
