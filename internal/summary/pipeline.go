// Package summary turns acquired source text into a child-friendly explanation
// and follow-up question suggestions.
package summary

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

const (
	DefaultMaxSourceChars = 2000
	DefaultMaxQuestions   = 3

	summaryTemperature  = 0.6
	questionTemperature = 0.6

	summarySystemPrompt  = "너는 초등학생에게 친절하게 설명하는 도우미야."
	questionSystemPrompt = "너는 초등학생의 호기심을 도와주는 질문 선생님이야. 요약 내용을 읽고, 그 내용을 바탕으로 아이들이 궁금해할 만한 짧고 쉬운 질문을 만들어줘."
)

const summaryPrompt = `%q라는 주제를 초등학생이 이해할 수 있게 설명해줘.
- 친절하고 부드러운 말투로 정리해줘.
- 어려운 단어는 괄호로 간단히 설명해줘.
- 중요한 말은 **굵게** 표시해줘.
- 이모지(🌍, 💡 등)를 가볍게 넣어줘.
- 문장은 짧게, 단락을 나눠줘.
참고 내용: %s

내용:
%s`

const questionPrompt = `아래 내용을 읽은 초등학생이 더 궁금해할 만한 질문을 최대 %d개 추천해줘.
- 너무 일반적이거나 범위가 넓은 질문은 피하고,
- 내용을 더 깊이 이해할 수 있게 돕는 질문을 해줘.
- 질문은 간결하고 쉬운 말로 한 줄에 하나씩 작성해줘.

내용:
%s`

// Pipeline generates summaries and questions with a Transformer.
type Pipeline struct {
	llm            llm.Transformer
	maxSourceChars int
	maxQuestions   int
	logger         *zap.Logger
}

// NewPipeline creates a Pipeline. Zero limits use the defaults.
func NewPipeline(t llm.Transformer, maxSourceChars, maxQuestions int, logger *zap.Logger) *Pipeline {
	if maxSourceChars <= 0 {
		maxSourceChars = DefaultMaxSourceChars
	}
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	return &Pipeline{llm: t, maxSourceChars: maxSourceChars, maxQuestions: maxQuestions, logger: utils.OrNop(logger)}
}

// Summarize explains originalText for a child. Only the first maxSourceChars
// characters are sent. Errors are fatal to the request and come back as
// *llm.DependencyError from the transformer.
func (p *Pipeline) Summarize(ctx context.Context, rawQuery string, label models.SourceLabel, originalText string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, rawQuery, label.String(), utils.Prefix(originalText, p.maxSourceChars))
	out, err := p.llm.Transform(ctx, summarySystemPrompt, prompt, summaryTemperature)
	if err != nil {
		return "", err
	}
	return out, nil
}

// SuggestQuestions proposes up to maxQuestions follow-up questions for summary.
// Failures are logged and yield an empty list.
func (p *Pipeline) SuggestQuestions(ctx context.Context, summary string) []string {
	prompt := fmt.Sprintf(questionPrompt, p.maxQuestions, utils.Prefix(summary, p.maxSourceChars))
	out, err := p.llm.Transform(ctx, questionSystemPrompt, prompt, questionTemperature)
	if err != nil {
		p.logger.Warn("question suggestion failed", zap.Error(err))
		return []string{}
	}
	return ParseQuestions(out, p.maxQuestions)
}
