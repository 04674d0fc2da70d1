package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/docrisk/internal/classifier"
	"github.com/dvloznov/docrisk/internal/collaborators"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/matcher"
	"github.com/dvloznov/docrisk/internal/risk"
	"github.com/dvloznov/docrisk/internal/storage"
	"github.com/dvloznov/docrisk/internal/vocabulary"
)

type fakeVision struct{ err error }

func (f fakeVision) Analyze(context.Context, domain.Content) (*domain.VisionOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.VisionOutput{TextDetections: []domain.Detection{{Box: []int{1, 2, 3, 4}, Text: "fake"}}}, nil
}

type fakeAnomaly struct{}

func (fakeAnomaly) Detect(context.Context, domain.Content) (*domain.AnomalyOutput, error) {
	return &domain.AnomalyOutput{AnomalyScore: 0.9, IsAnomaly: true}, nil
}

type fakeForecaster struct{ calls int }

func (f *fakeForecaster) Forecast(_ context.Context, _ *domain.BankStatement, m domain.Metrics) (*domain.Forecasts, error) {
	f.calls++
	return &domain.Forecasts{ShortTermCashflowForecast: []domain.ForecastPoint{{Value: m.Cashflow.NetCashflow}}}, nil
}

type fakeSummarizer struct{ seen []collaborators.SummaryInput }

func (f *fakeSummarizer) Summarize(_ context.Context, in collaborators.SummaryInput) (*domain.LLMSummary, error) {
	f.seen = append(f.seen, in)
	return &domain.LLMSummary{SummaryText: "fake summary", KeyInsights: []string{}, RedFlagsIdentified: []string{}}, nil
}

type fakeNotifier struct {
	records []*domain.AssessmentRecord
	err     error
}

func (f *fakeNotifier) Notify(_ context.Context, rec *domain.AssessmentRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

type failingRepository struct{ storage.AssessmentRepository }

func (failingRepository) Save(context.Context, *domain.AssessmentRecord) error {
	return errors.New("disk full")
}

type fixture struct {
	analyzer   *Analyzer
	repo       *storage.MemoryRepository
	forecaster *fakeForecaster
	summarizer *fakeSummarizer
	notifier   *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	v, err := vocabulary.Default()
	require.NoError(t, err)
	engine, err := risk.Load("", zerolog.Nop())
	require.NoError(t, err)

	f := &fixture{
		repo:       storage.NewMemoryRepository(),
		forecaster: &fakeForecaster{},
		summarizer: &fakeSummarizer{},
		notifier:   &fakeNotifier{},
	}
	f.analyzer = NewAnalyzer(Deps{
		Classifier: classifier.New(v, matcher.FieldThreshold, matcher.TypeThreshold),
		Engine:     engine,
		Collaborators: collaborators.Set{
			Vision:     fakeVision{},
			Anomaly:    fakeAnomaly{},
			Forecaster: f.forecaster,
			Summarizer: f.summarizer,
		},
		Repository: f.repo,
		Notifier:   f.notifier,
	})
	return f
}

func statement() *domain.Tabular {
	return &domain.Tabular{
		Headers: []string{"Date", "Description", "Amount", "Type", "Balance"},
		Rows: []domain.Row{
			{"Date": "2024-01-01", "Description": "Rent", "Amount": 1000.0, "Type": "debit", "Balance": 5000.0},
			{"Date": "2024-01-02", "Description": "Salary", "Amount": 2000.0, "Type": "credit", "Balance": 7000.0},
			{"Date": "2024-01-03", "Description": "Groceries", "Amount": 150.0, "Type": "debit", "Balance": 6850.0},
		},
	}
}

func TestAnalyze_BankStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.analyzer.Analyze(ctx, AnalyzeRequest{DocumentID: "doc-1", Content: statement()})
	require.NoError(t, err)

	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, domain.DocumentTypeBankStatement, resp.DocumentType)

	require.NotNil(t, resp.CashflowMetrics)
	assert.Equal(t, 2000.0, *resp.CashflowMetrics.TotalInflow)
	assert.Equal(t, 1150.0, *resp.CashflowMetrics.TotalOutflow)
	assert.Equal(t, 850.0, *resp.CashflowMetrics.NetCashflow)
	require.NotNil(t, resp.RiskIndicators)
	assert.Empty(t, resp.RiskIndicators.HighRiskTransactions)

	require.NotNil(t, resp.RiskScore)
	assert.Equal(t, 0.0, *resp.RiskScore)
	assert.Equal(t, domain.RiskBinLow, resp.RiskBin)
	assert.Equal(t, domain.DecisionApproved, resp.Decision)
	assert.Equal(t, []string{risk.NoRulesTriggered}, resp.RiskFactors)

	assert.Equal(t, "fake", resp.VisionOutput.TextDetections[0].Text)
	assert.True(t, resp.AnomalyOutput.IsAnomaly)
	assert.Nil(t, resp.RetrievalOutput)
	require.NotNil(t, resp.Forecasts)
	assert.Equal(t, "fake summary", resp.LLMSummary.SummaryText)

	require.NotEmpty(t, resp.AssessmentID)
	rec, err := f.repo.Get(ctx, resp.AssessmentID)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", rec.DocumentID)
	assert.Equal(t, domain.DocumentTypeBankStatement, rec.DocumentType)
	assert.Contains(t, string(rec.Metrics), `"net_cashflow":850`)

	require.Len(t, f.notifier.records, 1)
	assert.Equal(t, resp.AssessmentID, f.notifier.records[0].ID)
}

func TestAnalyze_EchoesExtractedData(t *testing.T) {
	f := newFixture(t)

	resp, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{Content: statement()})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.DocumentID, "missing document id gets a generated one")

	var echoed map[string][]map[string]any
	require.NoError(t, json.Unmarshal(resp.ExtractedData, &echoed))
	require.Len(t, echoed["excel_data"], 3)
	assert.Equal(t, "Rent", echoed["excel_data"][0]["Description"])

	raw := json.RawMessage(`{"text_content":"hello"}`)
	resp, err = f.analyzer.Analyze(context.Background(), AnalyzeRequest{Content: &domain.Text{Content: "hello"}, Extracted: raw})
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(resp.ExtractedData))
}

func TestAnalyze_BankruptcySignal(t *testing.T) {
	f := newFixture(t)

	resp, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{
		Content: statement(),
		Signals: domain.ExternalSignals{BankruptcyFlags: domain.Bool(true)},
	})
	require.NoError(t, err)

	assert.Equal(t, 50.0, *resp.RiskScore)
	assert.Equal(t, domain.RiskBinMedium, resp.RiskBin)
	assert.Equal(t, domain.DecisionReviewRequired, resp.Decision)
	assert.Equal(t, []string{"Bankruptcy detected"}, resp.RiskFactors)
	assert.True(t, *resp.RiskIndicators.BankruptcyFlags)
}

func TestAnalyze_UnknownDocument(t *testing.T) {
	f := newFixture(t)

	resp, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{
		Content: &domain.Unrecognized{Reason: "Unsupported file format"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentTypeUnknown, resp.DocumentType)
	assert.Nil(t, resp.CashflowMetrics)
	assert.Nil(t, resp.RiskIndicators)
	assert.Nil(t, resp.RiskScore)
	assert.Nil(t, resp.LLMSummary)
	assert.Empty(t, resp.AssessmentID)
	assert.Empty(t, f.notifier.records)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "cashflow_metrics")
	assert.NotContains(t, string(data), "risk_score")
}

func TestAnalyze_TextGetsPlaceholder(t *testing.T) {
	f := newFixture(t)

	resp, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{
		Content: &domain.Text{Content: "Credit report from Experian for John"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentTypeCreditBureau, resp.DocumentType)
	assert.Nil(t, resp.CashflowMetrics)
	require.NotNil(t, resp.RiskScore)
	assert.Equal(t, float64(risk.PlaceholderScore), *resp.RiskScore)
	assert.Equal(t, domain.DecisionReviewRequired, resp.Decision)
	assert.Zero(t, f.forecaster.calls)
	require.Len(t, f.summarizer.seen, 1)
	assert.Nil(t, f.summarizer.seen[0].Metrics)
}

func TestAnalyze_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		content domain.Content
	}{
		{
			name: "no parseable dates",
			content: &domain.Tabular{
				Headers: []string{"Date", "Description", "Amount", "Type", "Balance"},
				Rows: []domain.Row{
					{"Date": "not a date", "Description": "Rent", "Amount": 1000.0, "Type": "debit", "Balance": 5000.0},
					{"Date": "soon", "Description": "Salary", "Amount": 2000.0, "Type": "credit", "Balance": 7000.0},
				},
			},
		},
		{
			name: "credit bureau missing fields",
			content: &domain.Tabular{
				Headers: []string{"Full Name", "Credit Score", "Credit Report"},
				Rows:    []domain.Row{{"Full Name": "Jane Doe", "Credit Score": 700.0, "Credit Report": "Experian"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{Content: tt.content})
			require.Error(t, err)
			assert.True(t, domain.IsClientError(err), "got %v", err)

			all, listErr := f.repo.List(context.Background(), storage.Filter{})
			require.NoError(t, listErr)
			assert.Empty(t, all)
		})
	}
}

func TestAnalyze_CollaboratorFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.analyzer.pipeline.steps[4] = &CollaboratorsStep{Set: collaborators.Set{
		Vision:  fakeVision{err: errors.New("vision down")},
		Anomaly: fakeAnomaly{},
	}}

	resp, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{Content: statement()})
	require.NoError(t, err)
	assert.Nil(t, resp.VisionOutput)
	assert.NotNil(t, resp.AnomalyOutput)
}

func TestAnalyze_PersistFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.analyzer.pipeline.steps[6] = &PersistStep{Repository: failingRepository{}}

	_, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{Content: statement()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline step 7 failed")
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, f.notifier.records)
}

func TestAnalyze_NotifyFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("slack down")

	resp, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{Content: statement()})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AssessmentID)
}

func TestAnalyzer_Score(t *testing.T) {
	f := newFixture(t)

	a := f.analyzer.Score(context.Background(), domain.Metrics{
		Cashflow: domain.CashflowMetrics{NetCashflow: domain.Float(-10)},
	})
	assert.Equal(t, 20.0, a.Score)
	assert.Equal(t, domain.RiskBinLow, a.Bin)
	assert.Len(t, f.analyzer.Rules(), 5)
}

type recordingStep struct {
	name  string
	trace *[]string
	err   error
}

func (s *recordingStep) Execute(context.Context, *PipelineState) error {
	*s.trace = append(*s.trace, s.name)
	return s.err
}

func TestPipeline_StopsAtFirstError(t *testing.T) {
	var trace []string
	boom := errors.New("boom")
	p := NewPipeline(
		&recordingStep{name: "a", trace: &trace},
		&recordingStep{name: "b", trace: &trace, err: boom},
		&recordingStep{name: "c", trace: &trace},
	)

	err := p.Execute(context.Background(), &PipelineState{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "pipeline step 2 failed: boom", err.Error())
	assert.Equal(t, []string{"a", "b"}, trace)
}
