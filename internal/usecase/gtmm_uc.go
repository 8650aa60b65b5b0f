package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/infra/metrics"
)

const (
	defaultLeadCount = 25
	maxLeadCount     = 100
)

const gtmmSystemPrompt = "You are a senior go-to-market strategist for small and mid-sized brands. " +
	"Answer with concrete, actionable output in Markdown."

var promptFuncs = texttemplate.FuncMap{
	"join":  strings.Join,
	"limit": func(platform string) int { return model.AdPlatforms[platform] },
}

func mustPrompt(name, body string) *texttemplate.Template {
	return texttemplate.Must(texttemplate.New(name).Funcs(promptFuncs).Parse(body))
}

var promptTemplates = map[model.PromptKind]*texttemplate.Template{
	model.PromptMarketResearch: mustPrompt(string(model.PromptMarketResearch),
		`Research the {{.Niche}} market{{if .Region}} in {{.Region}}{{end}}. `+
			`Summarise market size, growth trends, the main customer segments and their pains, `+
			`pricing norms, and the three best channels to acquire customers.`),

	model.PromptLeadSourcing: mustPrompt(string(model.PromptLeadSourcing),
		`List {{.Count}} qualified B2B leads in the {{.Industry}} industry{{if .Region}} based in {{.Region}}{{end}}. `+
			`For each lead give company name, website, decision-maker title and one sentence on why they fit.`),

	model.PromptCompetitorAnalysis: mustPrompt(string(model.PromptCompetitorAnalysis),
		`Compare these competitors{{if .Niche}} in the {{.Niche}} space{{end}}: {{join .Competitors ", "}}. `+
			`For each one cover positioning, pricing, strongest channel and a weakness we can exploit.`),

	model.PromptContentCalendar: mustPrompt(string(model.PromptContentCalendar),
		`Plan a 30-day content calendar for {{.Audience}}{{if .Niche}} interested in {{.Niche}}{{end}}. `+
			`Give one post per day with platform, format, hook and call to action.`),

	model.PromptAdCopy: mustPrompt(string(model.PromptAdCopy),
		`Write five {{.Platform}} ad variations for {{.Product}}{{if .Audience}} aimed at {{.Audience}}{{end}}. `+
			`Keep the primary text under {{limit .Platform}} characters and end each with a clear call to action.`),
}

// Compile-time check
var _ GTMMUseCase = (*gtmmUC)(nil)

type GTMMUseCase interface {
	// Generate validates the request and renders the prompt for its kind.
	Generate(ctx context.Context, req model.PromptRequest) (*model.Prompt, error)
	// Execute generates the prompt and runs it through the configured LLM.
	Execute(ctx context.Context, req model.PromptRequest) (*model.Prompt, string, error)
}

type gtmmUC struct {
	ai  adapter.AIServiceAdapter
	log *zerolog.Logger
}

func NewGTMMUseCase(ai adapter.AIServiceAdapter, logger *zerolog.Logger) *gtmmUC {
	return &gtmmUC{ai: ai, log: logger}
}

func (u *gtmmUC) Generate(ctx context.Context, req model.PromptRequest) (*model.Prompt, error) {
	req, err := normalizePromptRequest(req)
	if err != nil {
		return nil, err
	}
	tpl, ok := promptTemplates[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown prompt kind %q", domain.ErrInvalidArgument, req.Kind)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, req); err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", req.Kind, err)
	}
	return &model.Prompt{Kind: req.Kind, Text: buf.String(), GeneratedAt: time.Now().UTC()}, nil
}

func (u *gtmmUC) Execute(ctx context.Context, req model.PromptRequest) (*model.Prompt, string, error) {
	p, err := u.Generate(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if u.ai == nil {
		return p, "", domain.ErrNotConfigured
	}

	modelName := u.ai.DefaultModel()
	start := time.Now()
	out, usage, err := u.ai.Complete(ctx, modelName, []adapter.Message{
		{Role: "system", Content: gtmmSystemPrompt},
		{Role: "user", Content: p.Text},
	})
	if errors.Is(err, domain.ErrNotConfigured) {
		return p, "", err
	}
	metrics.ObserveAICall(u.ai.Name(), modelName, usage.PromptTokens, usage.CompletionTokens,
		time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		return p, "", err
	}
	u.log.Info().
		Str("kind", string(p.Kind)).
		Str("model", modelName).
		Int("total_tokens", usage.TotalTokens).
		Msg("gtmm prompt executed")
	return p, out, nil
}

// normalizePromptRequest trims the inputs and enforces the per-kind required fields.
func normalizePromptRequest(req model.PromptRequest) (model.PromptRequest, error) {
	req.Niche = strings.TrimSpace(req.Niche)
	req.Region = strings.TrimSpace(req.Region)
	req.Industry = strings.TrimSpace(req.Industry)
	req.Audience = strings.TrimSpace(req.Audience)
	req.Product = strings.TrimSpace(req.Product)
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	competitors := req.Competitors[:0:0]
	for _, c := range req.Competitors {
		if c = strings.TrimSpace(c); c != "" {
			competitors = append(competitors, c)
		}
	}
	req.Competitors = competitors

	missing := func(field string) (model.PromptRequest, error) {
		return req, fmt.Errorf("%w: %s requires %s", domain.ErrInvalidArgument, req.Kind, field)
	}
	switch req.Kind {
	case model.PromptMarketResearch:
		if req.Niche == "" {
			return missing("niche")
		}
	case model.PromptLeadSourcing:
		if req.Industry == "" {
			return missing("industry")
		}
		if req.Count == 0 {
			req.Count = defaultLeadCount
		}
		if req.Count < 1 || req.Count > maxLeadCount {
			return req, fmt.Errorf("%w: count must be within 1..%d", domain.ErrInvalidArgument, maxLeadCount)
		}
	case model.PromptCompetitorAnalysis:
		if len(req.Competitors) == 0 {
			return missing("at least one competitor")
		}
	case model.PromptContentCalendar:
		if req.Audience == "" {
			return missing("audience")
		}
	case model.PromptAdCopy:
		if req.Product == "" {
			return missing("product")
		}
		if _, ok := model.AdPlatforms[req.Platform]; !ok {
			return req, fmt.Errorf("%w: platform must be one of facebook, instagram, google, tiktok, linkedin", domain.ErrInvalidArgument)
		}
	default:
		return req, fmt.Errorf("%w: unknown prompt kind %q", domain.ErrInvalidArgument, req.Kind)
	}
	return req, nil
}
