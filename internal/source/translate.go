package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/gunggeum/internal/keyword"
	"github.com/hyperjump/gunggeum/internal/llm"
)

const translateSystemPrompt = "너는 위키피디아 검색어를 잘 아는 번역 도우미야."

// LLMTitleTranslator asks a Transformer for the English Wikipedia title of a term.
type LLMTitleTranslator struct {
	llm llm.Transformer
}

// NewLLMTitleTranslator creates a translator backed by t.
func NewLLMTitleTranslator(t llm.Transformer) *LLMTitleTranslator {
	return &LLMTitleTranslator{llm: t}
}

// Translate implements TitleTranslator.
func (t *LLMTitleTranslator) Translate(ctx context.Context, term string) (string, error) {
	prompt := fmt.Sprintf("%q를 영어 위키피디아에서 검색 가능한 영어 제목으로 번역해줘. 대답은 영어 제목 하나만 해줘.", term)
	reply, err := t.llm.Transform(ctx, translateSystemPrompt, prompt, 0.3)
	if err != nil {
		return "", err
	}
	title, ok := keyword.Clean(reply)
	if !ok {
		return "", errors.New("unusable title translation")
	}
	return title, nil
}
