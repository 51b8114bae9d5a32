package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/internal/models"
)

func TestSummarize_TruncatesSource(t *testing.T) {
	m := &llm.MockTransformer{Reply: "**공룡**은 아주 오래전에 살았던 동물이에요 🦖"}
	p := NewPipeline(m, 0, 0, nil)
	source := strings.Repeat("가", 2500) + "꼬리"

	got, err := p.Summarize(context.Background(), "공룡", models.KoWiki, source)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != m.Reply {
		t.Errorf("got %q", got)
	}
	call := m.Calls()[0]
	if call.Temperature != 0.6 {
		t.Errorf("temperature = %v", call.Temperature)
	}
	if strings.Contains(call.User, "꼬리") {
		t.Error("text beyond 2000 characters was sent")
	}
	if !strings.Contains(call.User, strings.Repeat("가", 2000)) {
		t.Error("first 2000 characters missing from prompt")
	}
	if !strings.Contains(call.User, "한국어 위키피디아") {
		t.Error("source label missing from prompt")
	}
}

func TestSummarize_FailureIsFatal(t *testing.T) {
	dep := &llm.DependencyError{Provider: "mock", StatusCode: 429, RateLimited: true, Err: errors.New("slow down")}
	p := NewPipeline(&llm.MockTransformer{Err: dep}, 0, 0, nil)
	_, err := p.Summarize(context.Background(), "공룡", models.KoWiki, "text")
	if !llm.IsRateLimited(err) {
		t.Errorf("err = %v, want rate limited dependency error", err)
	}
}

func TestSuggestQuestions(t *testing.T) {
	m := &llm.MockTransformer{Reply: "1. 공룡은 무엇을 먹었나요?\n\n2) 왜 멸종했나요?\n- 가장 큰 공룡은?\n4. 넷째 질문"}
	p := NewPipeline(m, 0, 0, nil)
	got := p.SuggestQuestions(context.Background(), "요약")
	want := []string{"공룡은 무엇을 먹었나요?", "왜 멸종했나요?", "가장 큰 공룡은?"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestQuestions_FailureIsEmpty(t *testing.T) {
	p := NewPipeline(&llm.MockTransformer{Err: errors.New("down")}, 0, 0, nil)
	got := p.SuggestQuestions(context.Background(), "요약")
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestParseQuestions(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{"empty", "", 3, []string{}},
		{"blank lines", "\n  \n", 3, []string{}},
		{"numbered", "1. a\n2. b", 3, []string{"a", "b"}},
		{"bullets", "• a\n* b\n· c", 3, []string{"a", "b", "c"}},
		{"bold markers", "1. **a?**", 3, []string{"a?"}},
		{"q prefix", "Q1: a\nQ2) b", 3, []string{"a", "b"}},
		{"cap", "a\nb\nc\nd\ne", 3, []string{"a", "b", "c"}},
		{"no cap", "a\nb\nc\nd", 0, []string{"a", "b", "c", "d"}},
		{"keeps inner numbers", "1. 1945년에 무슨 일이?", 3, []string{"1945년에 무슨 일이?"}},
		{"leading decimal", "1.5미터나 자라나요?", 3, []string{"1.5미터나 자라나요?"}},
		{"numbered decimal", "2. 1.5미터나 자라나요?", 3, []string{"1.5미터나 자라나요?"}},
		{"negative number", "-40도에서도 살 수 있나요?", 3, []string{"-40도에서도 살 수 있나요?"}},
		{"dash bullet", "- a\n- b", 3, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseQuestions(tt.in, tt.limit)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
