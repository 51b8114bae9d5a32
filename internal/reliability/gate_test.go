package reliability

import "testing"

func TestIsReliable(t *testing.T) {
	tests := []struct {
		name     string
		original string
		summary  string
		keyword  string
		lowest   bool
		want     bool
	}{
		{"keyword in original", "공룡은 중생대의 파충류이다.", "아주 오래전 동물이에요.", "공룡", false, true},
		{"keyword only in summary", "중생대의 파충류", "공룡은 멋져요", "공룡", false, true},
		{"hedging summary", "공룡은 중생대의 파충류이다.", "정보가 부족합니다", "공룡", false, false},
		{"second hedging phrase", "공룡", "관련 내용을 찾지 못했어요 😢", "공룡", false, false},
		{"no evidence", "고래는 포유류이다.", "고래는 바다에 살아요.", "공룡", false, false},
		{"first token only", "이순신은 조선의 장군이다.", "요약", "이순신 장군", false, true},
		{"case insensitive", "The Tyrannosaurus was large.", "big", "tyrannosaurus", false, true},
		{"web search same rule", "공룡 snippet", "공룡 설명", "공룡", true, true},
		{"web search hedging", "공룡 snippet", "정보가 부족합니다", "공룡", true, false},
		{"web search no evidence", "snippet", "설명", "공룡", true, false},
		{"blank keyword", "text", "summary", "  ", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReliable(tt.original, tt.summary, tt.keyword, tt.lowest); got != tt.want {
				t.Errorf("IsReliable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_Verdict(t *testing.T) {
	v := Evaluate("공룡", "정보가 부족합니다", "공룡", false)
	if !v.Evidence || !v.Hedging || v.Reliable {
		t.Errorf("verdict = %+v", v)
	}
}

func TestPoliciesAgree(t *testing.T) {
	for _, ev := range []bool{true, false} {
		for _, h := range []bool{true, false} {
			v := Verdict{Evidence: ev, Hedging: h}
			if webSearchPolicy(v) != encyclopediaPolicy(v) {
				t.Errorf("policies differ for %+v", v)
			}
		}
	}
}
