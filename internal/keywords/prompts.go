package keywords

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/keywords.md
var keywordPromptRaw string

// KeywordPromptTemplate is the parsed prompt for batched keyword extraction.
// Parsed once at package init; reused on every ExtractKeywords call.
var KeywordPromptTemplate = template.Must(template.New("keywords").Parse(keywordPromptRaw))
