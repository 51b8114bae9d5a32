package guard

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// builtinWords is the base list of Korean and English words that are never shown to children.
var builtinWords = []string{
	"시발", "씨발", "씨바", "ㅅㅂ", "ㅆㅂ", "병신", "ㅂㅅ", "븅신", "개새끼",
	"좆", "존나", "ㅈㄴ", "미친놈", "미친년", "지랄", "닥쳐", "꺼져", "엠창",
	"느금", "섹스", "야동",
	"fuck", "shit", "bitch", "asshole", "bastard", "porn", "nigger",
	"pussy", "cunt", "slut", "whore",
}

// builtinAllowed are ordinary words that begin with a blocked word.
var builtinAllowed = []string{"시발점", "시발역", "시발택시"}

// englishSuffixes are the endings still blocked after an ASCII word.
var englishSuffixes = []string{"", "s", "es", "ed", "er", "ers", "ing", "ings", "y", "ty", "ter"}

// WordList holds blocked words. It is safe for concurrent use.
//
// Words are matched per whitespace-separated token: a Korean word blocks any
// token it begins so particles are still caught, while an ASCII word blocks
// only the token itself plus common English endings. Runs of single-letter
// tokens are joined first so "씨 발" is caught.
type WordList struct {
	mu      sync.RWMutex
	words   []string
	allowed []string
	path    string
	logger  *zap.Logger
}

// NewWordList creates a list containing the built-in words plus extra.
func NewWordList(extra []string) *WordList {
	w := &WordList{logger: zap.NewNop()}
	w.set(extra)
	return w
}

// LoadWordList creates a list from the built-in words plus the file at path.
// A missing file is logged and leaves only the built-in words.
func LoadWordList(path string, logger *zap.Logger) (*WordList, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WordList{path: path, logger: logger}
	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Path returns the extension file path, if any.
func (w *WordList) Path() string {
	return w.path
}

// Reload re-reads the extension file and replaces the current list.
func (w *WordList) Reload() error {
	if w.path == "" {
		w.set(nil)
		return nil
	}
	extra, err := readWordFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("banned word file not found, using built-in list", zap.String("path", w.path))
			w.set(nil)
			return nil
		}
		return fmt.Errorf("failed to load banned words: %w", err)
	}
	w.set(extra)
	w.logger.Info("banned words loaded", zap.String("path", w.path), zap.Int("custom", len(extra)))
	return nil
}

// Len returns the number of words in the list.
func (w *WordList) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.words)
}

// Contains reports whether any token of text is a listed word, ignoring case.
func (w *WordList) Contains(text string) bool {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, tok := range tokens {
		if w.blocked(tok) {
			return true
		}
	}
	return false
}

func (w *WordList) blocked(tok string) bool {
	for _, a := range w.allowed {
		if strings.HasPrefix(tok, a) {
			return false
		}
	}
	for _, word := range w.words {
		if !strings.HasPrefix(tok, word) {
			continue
		}
		if !isASCII(word) {
			return true
		}
		rest := tok[len(word):]
		for _, suffix := range englishSuffixes {
			if rest == suffix {
				return true
			}
		}
	}
	return false
}

func (w *WordList) set(extra []string) {
	var blocked, allowed []string
	blocked = append(blocked, builtinWords...)
	allowed = append(allowed, builtinAllowed...)
	for _, word := range extra {
		if a, ok := strings.CutPrefix(word, "!"); ok {
			allowed = append(allowed, a)
			continue
		}
		blocked = append(blocked, word)
	}
	words := dedupeFolded(blocked)
	allow := dedupeFolded(allowed)
	w.mu.Lock()
	w.words = words
	w.allowed = allow
	w.mu.Unlock()
}

func dedupeFolded(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, word := range list {
		f := fold(word)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, sc.Err()
}

// tokenize splits text on whitespace, trims punctuation from each token and
// folds it. Consecutive single-letter tokens are also emitted joined together.
func tokenize(text string) []string {
	var out, run []string
	flush := func() {
		if len(run) > 1 {
			out = append(out, strings.Join(run, ""))
		}
		run = run[:0]
	}
	for _, field := range strings.Fields(text) {
		tok := fold(strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if tok == "" {
			continue
		}
		out = append(out, tok)
		if utf8.RuneCountInString(tok) == 1 {
			run = append(run, tok)
			continue
		}
		flush()
	}
	flush()
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// fold lowercases s and removes all whitespace.
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
