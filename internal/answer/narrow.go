package answer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/ngram"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hyperjump/gunggeum/pkg/utils"
)

const (
	bigramFilter   = "bigram"
	bigramAnalyzer = "bigram_text"
)

type paragraph struct {
	Text string `json:"text"`
}

// Narrow keeps the paragraphs of contextText most relevant to question, in their
// original order, within budget characters. Paragraphs are ranked with an in-memory
// bleve index using character bigrams, so a word still matches with a particle attached.
// When nothing matches, the first budget characters are returned.
func Narrow(contextText, question string, budget int) (string, error) {
	if utils.RuneLen(contextText) <= budget {
		return contextText, nil
	}
	paras := splitParagraphs(contextText)

	im, err := paragraphMapping()
	if err != nil {
		return "", err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return "", fmt.Errorf("failed to create paragraph index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i, p := range paras {
		if err := batch.Index(strconv.Itoa(i), paragraph{Text: p}); err != nil {
			return "", fmt.Errorf("failed to index paragraph: %w", err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return "", fmt.Errorf("failed to index paragraphs: %w", err)
	}

	q := bleve.NewMatchQuery(question)
	q.SetField("text")
	q.Analyzer = bigramAnalyzer
	req := bleve.NewSearchRequestOptions(q, len(paras), 0, false)
	res, err := index.Search(req)
	if err != nil {
		return "", fmt.Errorf("paragraph search failed: %w", err)
	}
	if len(res.Hits) == 0 {
		return utils.Prefix(contextText, budget), nil
	}

	var picked []int
	used := 0
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(paras) {
			continue
		}
		n := utils.RuneLen(paras[i]) + 1
		if used+n > budget {
			continue
		}
		picked = append(picked, i)
		used += n
	}
	if len(picked) == 0 {
		// The best paragraph alone exceeds the budget.
		best, _ := strconv.Atoi(res.Hits[0].ID)
		return utils.Prefix(paras[best], budget), nil
	}
	sort.Ints(picked)
	out := make([]string, len(picked))
	for j, i := range picked {
		out[j] = paras[i]
	}
	return strings.Join(out, "\n"), nil
}

// paragraphMapping indexes paragraph text as lowercased character bigrams, so
// "화산" matches "화산에" and "화산재".
func paragraphMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomTokenFilter(bigramFilter, map[string]interface{}{
		"type": ngram.Name,
		"min":  2.0,
		"max":  2.0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register bigram filter: %w", err)
	}
	err = im.AddCustomAnalyzer(bigramAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name, bigramFilter},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register bigram analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = bigramAnalyzer
	docMapping.AddFieldMappingsAt("text", textField)
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = bigramAnalyzer
	return im, nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}
