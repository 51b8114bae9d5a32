package models

// SourceLabel identifies one content source in the fallback chain.
type SourceLabel int

const (
	// KoWiki is Korean Wikipedia, the primary source.
	KoWiki SourceLabel = iota
	// EnWiki is English Wikipedia, the secondary source.
	EnWiki
	// WebSearch is general web search, the lowest-priority source.
	WebSearch
)

// String returns the user-facing name of the source.
func (l SourceLabel) String() string {
	switch l {
	case KoWiki:
		return "한국어 위키피디아"
	case EnWiki:
		return "영어 위키피디아"
	case WebSearch:
		return "Serper 웹 검색"
	default:
		return "알 수 없는 출처"
	}
}

// Slug returns a short ASCII identifier used in logs and metrics.
func (l SourceLabel) Slug() string {
	switch l {
	case KoWiki:
		return "ko_wiki"
	case EnWiki:
		return "en_wiki"
	case WebSearch:
		return "web_search"
	default:
		return "unknown"
	}
}

// SourceResult is the product of one chain step. Succeeded implies Text is non-empty.
type SourceResult struct {
	Label     SourceLabel
	Text      string
	Succeeded bool
}

// Succeed returns a successful result, or a failed one when text is empty.
func Succeed(label SourceLabel, text string) SourceResult {
	return SourceResult{Label: label, Text: text, Succeeded: text != ""}
}

// SearchOutcome is the response for a successful search.
// OriginalText is the context for follow-up questions; it is always the text of the
// single source that produced Summary.
type SearchOutcome struct {
	Summary      string   `json:"summary"`
	Questions    []string `json:"questions"`
	Source       string   `json:"source"`
	OriginalText string   `json:"originalText"`

	Label SourceLabel `json:"-"`
	Term  string      `json:"-"`
}
