package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// FinishReason classifies why the model stopped generating.
type FinishReason string

const (
	// FinishStop means the model completed normally.
	FinishStop FinishReason = "stop"

	// FinishLength means the completion hit the token limit.
	FinishLength FinishReason = "length"

	// FinishContentFilter means a safety classifier suppressed the
	// completion. Callers treat this as retryable, not fatal.
	FinishContentFilter FinishReason = "content_filter"

	// FinishUnknown covers backends that report nothing useful.
	FinishUnknown FinishReason = ""
)

// Completion is one model response with enough metadata for callers to
// apply their own safety-retry policy.
type Completion struct {
	Text         string
	FinishReason FinishReason
}

// Flagged reports whether the completion was suppressed by a safety
// classifier or came back with no extractable text.
func (c Completion) Flagged() bool {
	return c.FinishReason == FinishContentFilter || c.Text == ""
}

// LLMClient defines the standard interface for any LLM backend
// TODO: Add more methods to this interface.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (Completion, error)
}
