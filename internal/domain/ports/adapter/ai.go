package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the port for LLM completions used to run generated prompts.
type AIServiceAdapter interface {
	Name() string
	DefaultModel() string
	// Complete returns the assistant text and provider-reported usage.
	Complete(ctx context.Context, model string, messages []Message) (string, Usage, error)
}
