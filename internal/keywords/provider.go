package keywords

import "context"

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// Used only by LLMExtractor.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
