package ai

import (
	"context"
	"strings"

	"adtopia/internal/domain"
	"adtopia/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

// MultiAIAdapter routes a call to a provider chosen by model name.
type MultiAIAdapter struct {
	defaultProvider string
	defaultModel    string
	byProvider      map[string]adapter.AIServiceAdapter
}

func NewMultiAIAdapter(defaultModel string, byProvider map[string]adapter.AIServiceAdapter) *MultiAIAdapter {
	m := &MultiAIAdapter{
		defaultModel: defaultModel,
		byProvider:   map[string]adapter.AIServiceAdapter{},
	}
	for name, a := range byProvider {
		if a != nil {
			m.byProvider[strings.ToLower(name)] = a
		}
	}
	m.defaultProvider = m.resolveProvider(defaultModel)
	return m
}

// Configured reports whether at least one provider is available.
func (m *MultiAIAdapter) Configured() bool { return len(m.byProvider) > 0 }

func (m *MultiAIAdapter) Name() string         { return "multi" }
func (m *MultiAIAdapter) DefaultModel() string { return m.defaultModel }

func (m *MultiAIAdapter) resolveProvider(model string) string {
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "o1"), strings.HasPrefix(l, "o3"), strings.HasPrefix(l, "o4"):
		return "openai"
	default:
		return m.defaultProvider
	}
}

func (m *MultiAIAdapter) pick(model string) adapter.AIServiceAdapter {
	if a := m.byProvider[m.resolveProvider(model)]; a != nil {
		return a
	}
	// last resort: first available
	for _, name := range []string{"openai", "gemini"} {
		if a := m.byProvider[name]; a != nil {
			return a
		}
	}
	for _, a := range m.byProvider {
		return a
	}
	return nil
}

// Complete uses the default model when model is empty. A model that maps to an
// unconfigured provider falls back to another provider with that provider's own default.
func (m *MultiAIAdapter) Complete(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	if model == "" {
		model = m.defaultModel
	}
	a := m.pick(model)
	if a == nil {
		return "", adapter.Usage{}, domain.ErrNotConfigured
	}
	if m.resolveProvider(model) != a.Name() {
		model = a.DefaultModel()
	}
	return a.Complete(ctx, model, messages)
}
