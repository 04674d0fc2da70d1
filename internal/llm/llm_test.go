package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/docrisk/internal/collaborators"
	"github.com/dvloznov/docrisk/internal/config"
	"github.com/dvloznov/docrisk/internal/domain"
)

type fakeProvider struct {
	reply  string
	err    error
	system string
	prompt string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, system, prompt string) (string, error) {
	f.system = system
	f.prompt = prompt
	return f.reply, f.err
}

func summaryInput() collaborators.SummaryInput {
	return collaborators.SummaryInput{
		DocumentType: domain.DocumentTypeBankStatement,
		Content:      &domain.Text{Content: "Salary 2000, rent 1000"},
		Metrics: &domain.Metrics{
			Cashflow: domain.CashflowMetrics{NetCashflow: domain.Float(-150)},
		},
		Assessment: domain.RiskAssessment{
			Score:     20,
			Bin:       domain.RiskBinLow,
			Decision:  domain.DecisionApproved,
			Rationale: []string{"Negative net cashflow (-150)"},
		},
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced bare", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Here you go:\n{\"a\":1}\nThanks", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}

func TestDecodeModelJSON_RepairsTrailingComma(t *testing.T) {
	var out struct {
		SummaryText string   `json:"summary_text"`
		KeyInsights []string `json:"key_insights"`
	}
	err := decodeModelJSON("```json\n{\"summary_text\": \"ok\", \"key_insights\": [\"a\", \"b\",],}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.SummaryText)
	assert.Equal(t, []string{"a", "b"}, out.KeyInsights)
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt, err := buildSummaryPrompt(summaryInput())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Document type: bank_statement")
	assert.Contains(t, prompt, "Risk score: 20 (low), decision: Approved")
	assert.Contains(t, prompt, "  - Negative net cashflow (-150)")
	assert.Contains(t, prompt, `"net_cashflow": -150`)
	assert.Contains(t, prompt, "Salary 2000, rent 1000")
}

func TestBuildSummaryPrompt_TruncatesContent(t *testing.T) {
	in := summaryInput()
	in.Metrics = nil
	in.Content = &domain.Text{Content: strings.Repeat("x", maxPromptContent+500)}

	prompt, err := buildSummaryPrompt(in)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Metrics")
	assert.Equal(t, maxPromptContent, strings.Count(prompt, "x"))
}

func TestSummarizer_UsesModelReply(t *testing.T) {
	provider := &fakeProvider{reply: "```json\n{\"summary_text\":\"Cashflow is negative.\",\"key_insights\":[\"Net -150\"]}\n```"}
	s := NewSummarizer(provider, nil)

	summary, err := s.Summarize(context.Background(), summaryInput())
	require.NoError(t, err)

	assert.Equal(t, "Cashflow is negative.", summary.SummaryText)
	assert.Equal(t, []string{"Net -150"}, summary.KeyInsights)
	assert.Equal(t, []string{}, summary.RedFlagsIdentified)
	assert.Equal(t, summarySystemPrompt, provider.system)
	assert.Contains(t, provider.prompt, "bank_statement")
}

func TestSummarizer_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"provider error", &fakeProvider{err: errors.New("quota exceeded")}},
		{"unparseable reply", &fakeProvider{reply: "I cannot help with that."}},
		{"empty summary", &fakeProvider{reply: `{"summary_text":"  "}`}},
	}

	want, err := collaborators.RationaleSummarizer{}.Summarize(context.Background(), summaryInput())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSummarizer(tt.provider, nil).Summarize(context.Background(), summaryInput())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), config.LLMConfig{Provider: config.LLMNone})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(context.Background(), config.LLMConfig{Provider: config.LLMAnthropic})
	assert.Error(t, err)

	p, err = NewProvider(context.Background(), config.LLMConfig{Provider: config.LLMAnthropic, AnthropicAPIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}
