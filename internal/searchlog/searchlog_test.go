package searchlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

var seoul, _ = time.LoadLocation("Asia/Seoul")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func TestDailyWriter_Rotates(t *testing.T) {
	dir := t.TempDir()
	c := &clock{now: time.Date(2025, 5, 1, 23, 59, 0, 0, seoul)}
	w := NewDailyWriter(dir, KindSearch, seoul, c.Now)
	defer w.Close()

	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}
	c.set(time.Date(2025, 5, 2, 0, 0, 1, 0, seoul))
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatal(err)
	}

	for day, want := range map[string]string{"2025-05-01": "first\n", "2025-05-02": "second\n"} {
		data, err := os.ReadFile(filepath.Join(dir, FileName(KindSearch, day)))
		if err != nil {
			t.Fatalf("read %s: %v", day, err)
		}
		if string(data) != want {
			t.Errorf("%s content = %q, want %q", day, data, want)
		}
	}
}

func TestDailyWriter_UsesLocation(t *testing.T) {
	dir := t.TempDir()
	// 15:30 UTC is already the next day in Seoul.
	c := &clock{now: time.Date(2025, 5, 1, 15, 30, 0, 0, time.UTC)}
	w := NewDailyWriter(dir, KindError, seoul, c.Now)
	defer w.Close()
	if _, err := w.Write([]byte("x\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "error-2025-05-02.log")); err != nil {
		t.Errorf("expected Seoul-dated file: %v", err)
	}
}

func TestOpen_WritesAndTails(t *testing.T) {
	dir := t.TempDir()
	c := &clock{now: time.Date(2025, 5, 3, 10, 0, 0, 0, seoul)}
	logs, err := Open(Options{Dir: dir, Location: seoul, RetentionDays: 14, Clock: c.Now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 5; i++ {
		logs.Search.Info("검색", zap.String("keyword", fmt.Sprintf("공룡%d", i)), zap.String("ip", "1.2.3.4"))
	}
	logs.Error.Error("요약 실패", zap.String("keyword", "고래"))
	logs.Error.Info("info entries are not written to the error file")
	if err := logs.Close(); err != nil {
		t.Fatal(err)
	}

	lines, err := Tail(dir, KindSearch, "2025-05-03", 2)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || !strings.Contains(lines[0], "공룡3") || !strings.Contains(lines[1], "공룡4") {
		t.Errorf("tail = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "2025-05-03 10:00:00") {
		t.Errorf("line not stamped in Seoul time: %q", lines[0])
	}

	errLines, err := Tail(dir, KindError, "2025-05-03", 10)
	if err != nil {
		t.Fatalf("Tail error log: %v", err)
	}
	if len(errLines) != 1 || !strings.Contains(errLines[0], "요약 실패") {
		t.Errorf("error tail = %q", errLines)
	}
}

func TestTee(t *testing.T) {
	dir := t.TempDir()
	c := &clock{now: time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC)}
	logs, err := Open(Options{Dir: dir, Clock: c.Now})
	if err != nil {
		t.Fatal(err)
	}
	base := logs.Tee(zap.NewNop())
	base.Warn("not teed")
	base.Error("teed failure")
	_ = logs.Close()

	lines, err := Tail(dir, KindError, "2025-05-03", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "teed failure") {
		t.Errorf("lines = %q", lines)
	}
}

func TestTail_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Tail(dir, "access", "2025-05-03", 10); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad kind err = %v", err)
	}
	if _, err := Tail(dir, KindSearch, "../../etc/passwd", 10); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad date err = %v", err)
	}
	if _, err := Tail(dir, KindSearch, "2025-05-03", 10); !errors.Is(err, ErrNoLog) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"search-2025-05-01.log",
		"error-2025-05-05.log",
		"search-2025-05-06.log",
		"search-2025-05-20.log",
		"notes-2025-01-01.txt",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := Cleanup(dir, time.Date(2025, 5, 20, 12, 0, 0, 0, seoul), 14)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	sort.Strings(removed)
	want := []string{"error-2025-05-05.log", "search-2025-05-01.log"}
	if strings.Join(removed, ",") != strings.Join(want, ",") {
		t.Errorf("removed = %v, want %v", removed, want)
	}
	for _, keep := range []string{"search-2025-05-06.log", "search-2025-05-20.log", "notes-2025-01-01.txt"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("%s removed: %v", keep, err)
		}
	}
}
