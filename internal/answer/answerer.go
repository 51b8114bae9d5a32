// Package answer answers follow-up questions grounded in previously acquired text.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

// ErrMissingInput is returned when the context or the question is blank.
var ErrMissingInput = errors.New("context and question are required")

const (
	DefaultMaxContextChars = 6000
	temperature            = 0.5
	systemPrompt           = "너는 어린이의 궁금증을 쉽게 설명해주는 선생님이야."
)

const userPrompt = `아래 문맥은 어떤 주제에 대한 설명이야.
이 내용을 바탕으로 사용자가 한 질문에 대해 부드럽고 친절하게 답변해줘. 🧒

- 반드시 문맥 안에 있는 정보만 바탕으로 설명해줘.
- 어려운 용어는 괄호로 풀어줘.
- 이모지를 적절히 넣고, 말투는 따뜻하고 쉽게 말해줘.
- 문장은 짧고 자연스럽게 단락을 나눠줘.

📘 문맥:
%s

❓ 질문:
%s`

// Answerer answers questions using only the supplied context.
type Answerer struct {
	llm             llm.Transformer
	maxContextChars int
	logger          *zap.Logger
}

// NewAnswerer creates an Answerer. maxContextChars <= 0 uses the default budget.
func NewAnswerer(t llm.Transformer, maxContextChars int, logger *zap.Logger) *Answerer {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &Answerer{llm: t, maxContextChars: maxContextChars, logger: utils.OrNop(logger)}
}

// Answer returns a child-friendly answer to question grounded in contextText.
// There is no retry; transformer failures are returned as is.
func (a *Answerer) Answer(ctx context.Context, contextText, question string) (string, error) {
	contextText = strings.TrimSpace(contextText)
	question = strings.TrimSpace(question)
	if contextText == "" || question == "" {
		return "", ErrMissingInput
	}
	grounded := contextText
	if utils.RuneLen(contextText) > a.maxContextChars {
		narrowed, err := Narrow(contextText, question, a.maxContextChars)
		if err != nil {
			a.logger.Warn("context narrowing failed, using prefix", zap.Error(err))
			narrowed = utils.Prefix(contextText, a.maxContextChars)
		}
		a.logger.Debug("context narrowed",
			zap.Int("from", utils.RuneLen(contextText)), zap.Int("to", utils.RuneLen(narrowed)))
		grounded = narrowed
	}
	out, err := a.llm.Transform(ctx, systemPrompt, fmt.Sprintf(userPrompt, grounded, question), temperature)
	if err != nil {
		return "", err
	}
	return out, nil
}
