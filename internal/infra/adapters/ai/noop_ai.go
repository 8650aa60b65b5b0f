package ai

import (
	"context"

	"adtopia/internal/domain"
	"adtopia/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter stands in when no LLM key is configured.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter { return &NoopAIAdapter{} }

func (a *NoopAIAdapter) Name() string         { return "noop" }
func (a *NoopAIAdapter) DefaultModel() string { return "" }

func (a *NoopAIAdapter) Complete(context.Context, string, []adapter.Message) (string, adapter.Usage, error) {
	return "", adapter.Usage{}, domain.ErrNotConfigured
}
