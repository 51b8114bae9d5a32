package keyword

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/gunggeum/internal/llm"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		reply string
		err   error
		want  string
	}{
		{"plain keyword", "공룡은 왜 멸종했어?", "공룡", nil, "공룡"},
		{"quoted keyword", "이순신 장군이 누구야", `"이순신"`, nil, "이순신"},
		{"label prefix", "고래는 물고기야?", "키워드: 고래", nil, "고래"},
		{"transformer error", "  화산  ", "", errors.New("timeout"), "화산"},
		{"empty reply", "화산", "   ", nil, "화산"},
		{"multi-line reply", "화산", "화산\n용암", nil, "화산"},
		{"prose reply", "화산", strings.Repeat("가", MaxKeywordRunes+1), nil, "화산"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &llm.MockTransformer{Reply: tt.reply, Err: tt.err}
			n := NewNormalizer(m, nil)
			if got := n.Normalize(context.Background(), tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			calls := m.Calls()
			if len(calls) != 1 {
				t.Fatalf("calls = %d, want 1", len(calls))
			}
			if calls[0].Temperature != 0.3 {
				t.Errorf("temperature = %v", calls[0].Temperature)
			}
			if !strings.Contains(calls[0].User, strings.TrimSpace(tt.raw)) {
				t.Errorf("prompt %q does not contain query", calls[0].User)
			}
		})
	}
}

func TestNormalize_emptyQuerySkipsTransformer(t *testing.T) {
	m := &llm.MockTransformer{Reply: "x"}
	if got := NewNormalizer(m, nil).Normalize(context.Background(), "   "); got != "" {
		t.Errorf("got %q", got)
	}
	if m.CallCount() != 0 {
		t.Error("transformer called for empty query")
	}
}
