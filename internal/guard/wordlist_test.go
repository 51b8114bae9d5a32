package guard

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestLoadWordList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "banned.txt")
	if err := os.WriteFile(path, []byte("멍청이\n\n# comment\n  Dummy  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := LoadWordList(path, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadWordList: %v", err)
	}
	if !w.Contains("멍 청 이") {
		t.Error("expected custom word match with spaces")
	}
	if !w.Contains("DUMMY") {
		t.Error("expected case-insensitive match")
	}
	if w.Contains("comment") {
		t.Error("comment lines must be ignored")
	}
	if w.Len() != len(builtinWords)+2 {
		t.Errorf("Len = %d, want %d", w.Len(), len(builtinWords)+2)
	}
}

func TestLoadWordList_missingFile(t *testing.T) {
	w, err := LoadWordList(filepath.Join(t.TempDir(), "missing.txt"), zap.NewNop())
	if err != nil {
		t.Fatalf("missing file must not be fatal: %v", err)
	}
	if w.Len() != len(builtinWords) {
		t.Errorf("Len = %d, want built-in only", w.Len())
	}
}

func TestWordList_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.txt")
	if err := os.WriteFile(path, []byte("aaa\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := LoadWordList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Contains("aaa 맞아") {
		t.Fatal("expected aaa")
	}
	if err := os.WriteFile(path, []byte("bbb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(); err != nil {
		t.Fatal(err)
	}
	if w.Contains("aaa") || !w.Contains("bbb") {
		t.Error("reload did not replace custom words")
	}
}

func TestWordList_concurrent(t *testing.T) {
	w := NewWordList([]string{"foo"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.Contains("a foo b")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				w.set([]string{"foo"})
			}
		}()
	}
	wg.Wait()
	if !w.Contains("foo") {
		t.Error("expected foo")
	}
}

func TestWordList_allowEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.txt")
	if err := os.WriteFile(path, []byte("바보\n!바보새\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := LoadWordList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Contains("바보야") {
		t.Error("expected particle form to be blocked")
	}
	if w.Contains("바보새는 어디 살아?") {
		t.Error("allowed word must not be blocked")
	}
	if w.Contains("해바라기 보리") {
		t.Error("words must not be matched across spaces")
	}
	if w.Len() != len(builtinWords)+1 {
		t.Errorf("Len = %d, want %d", w.Len(), len(builtinWords)+1)
	}
}
