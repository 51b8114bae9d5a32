package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("이순신 장군", 3); got != "이순신..." {
		t.Errorf("hangul truncate: got %q", got)
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than n", "공룡", 5, "공룡"},
		{"exact", "공룡", 2, "공룡"},
		{"cut runes", "공룡은 파충류", 3, "공룡은"},
		{"ascii", "dinosaur", 4, "dino"},
		{"zero keeps all", "abc", 0, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Prefix(tt.in, tt.n); got != tt.want {
				t.Errorf("Prefix(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestFirstToken(t *testing.T) {
	if got := FirstToken("  이순신 장군 "); got != "이순신" {
		t.Errorf("got %q", got)
	}
	if got := FirstToken("   "); got != "" {
		t.Errorf("blank: got %q", got)
	}
	if RuneLen("공룡") != 2 {
		t.Error("RuneLen should count characters")
	}
}
