package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/docrisk/internal/collaborators"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
)

// Summarizer asks a model for the analysis summary and falls back to the
// rationale-based summary when the model fails.
type Summarizer struct {
	provider Provider
	fallback collaborators.Summarizer
}

// NewSummarizer wraps provider. A nil fallback selects
// collaborators.RationaleSummarizer.
func NewSummarizer(provider Provider, fallback collaborators.Summarizer) *Summarizer {
	if fallback == nil {
		fallback = collaborators.RationaleSummarizer{}
	}
	return &Summarizer{provider: provider, fallback: fallback}
}

func (s *Summarizer) Summarize(ctx context.Context, in collaborators.SummaryInput) (*domain.LLMSummary, error) {
	log := logger.FromContext(ctx)

	summary, err := s.generate(ctx, in)
	if err != nil {
		log.Warn().Err(err).Str("provider", s.provider.Name()).Msg("Model summary failed, using fallback")
		return s.fallback.Summarize(ctx, in)
	}
	return summary, nil
}

func (s *Summarizer) generate(ctx context.Context, in collaborators.SummaryInput) (*domain.LLMSummary, error) {
	prompt, err := buildSummaryPrompt(in)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.Generate(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var summary domain.LLMSummary
	if err := decodeModelJSON(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if strings.TrimSpace(summary.SummaryText) == "" {
		return nil, fmt.Errorf("decode summary: summary_text is empty")
	}
	if summary.KeyInsights == nil {
		summary.KeyInsights = []string{}
	}
	if summary.RedFlagsIdentified == nil {
		summary.RedFlagsIdentified = []string{}
	}
	return &summary, nil
}
