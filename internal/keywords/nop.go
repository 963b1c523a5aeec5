package keywords

import "context"

// NopExtractor is used when keywords.provider is "none". It returns one empty
// keyword list per text with no external calls.
type NopExtractor struct{}

// NewNopExtractor returns a NopExtractor.
func NewNopExtractor() *NopExtractor {
	return &NopExtractor{}
}

// ExtractKeywords returns len(texts) empty lists.
func (n *NopExtractor) ExtractKeywords(_ context.Context, texts []string) ([][]string, error) {
	out := make([][]string, len(texts))
	for i := range out {
		out[i] = []string{}
	}
	return out, nil
}
