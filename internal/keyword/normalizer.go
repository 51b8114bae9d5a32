// Package keyword reduces a free-form question to the single topic keyword used for lookups.
package keyword

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

const (
	// MaxKeywordRunes bounds an extracted keyword; longer replies are treated as prose.
	MaxKeywordRunes = 40
	temperature     = 0.3
	systemPrompt    = "너는 문장에서 핵심 키워드 하나만 뽑아주는 도우미야. 다른 말 없이 키워드만 대답해."
)

// Normalizer extracts a keyword with a Transformer, falling back to the trimmed query.
type Normalizer struct {
	llm    llm.Transformer
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer. A nil logger disables logging.
func NewNormalizer(t llm.Transformer, logger *zap.Logger) *Normalizer {
	return &Normalizer{llm: t, logger: utils.OrNop(logger)}
}

// Normalize returns the salient keyword of rawQuery. It never fails: on any
// transformer error or unusable reply the trimmed query is returned.
func (n *Normalizer) Normalize(ctx context.Context, rawQuery string) string {
	fallback := strings.TrimSpace(rawQuery)
	if fallback == "" || n.llm == nil {
		return fallback
	}
	reply, err := n.llm.Transform(ctx, systemPrompt, fmt.Sprintf("다음 문장에서 핵심 키워드 하나만 뽑아줘. 문장: %q", fallback), temperature)
	if err != nil {
		n.logger.Warn("keyword extraction failed, using raw query", zap.String("query", fallback), zap.Error(err))
		return fallback
	}
	term, ok := Clean(reply)
	if !ok {
		n.logger.Warn("keyword extraction returned unusable reply, using raw query",
			zap.String("query", fallback), zap.String("reply", utils.Truncate(reply, 80)))
		return fallback
	}
	n.logger.Debug("keyword extracted", zap.String("query", fallback), zap.String("keyword", term))
	return term
}

// labelPrefixes are lead-ins models sometimes add before the keyword.
var labelPrefixes = []string{"핵심 키워드:", "키워드:", "keyword:", "Keyword:"}

// Clean validates a model reply as a keyword. Surrounding quotes, a label prefix
// and a trailing period are removed. Empty, multi-line or overly long replies are rejected.
func Clean(reply string) (string, bool) {
	s := strings.TrimSpace(reply)
	if s == "" || strings.ContainsAny(s, "\r\n") {
		return "", false
	}
	for _, p := range labelPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(strings.TrimPrefix(s, p))
			break
		}
	}
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSpace(strings.Trim(s, "\"'`“”‘’「」"))
	if s == "" || utils.RuneLen(s) > MaxKeywordRunes {
		return "", false
	}
	return s, true
}
