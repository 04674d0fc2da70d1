package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/docrisk/internal/classifier"
	"github.com/dvloznov/docrisk/internal/collaborators"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/metrics"
	"github.com/dvloznov/docrisk/internal/notify"
	"github.com/dvloznov/docrisk/internal/risk"
	"github.com/dvloznov/docrisk/internal/standardize"
	"github.com/dvloznov/docrisk/internal/storage"
)

// PipelineStep represents a single step in the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps. Each step
// only adds to it.
type PipelineState struct {
	DocumentID string
	Content    domain.Content
	// Extracted is echoed as extracted_data. Nil means encode Content.
	Extracted json.RawMessage
	Signals   domain.ExternalSignals

	Classification classifier.Result
	Statement      *domain.BankStatement
	CreditBureau   *domain.CreditBureauInput
	KybKyc         *domain.KybKycInput
	Metrics        *domain.Metrics
	Assessment     *domain.RiskAssessment

	Vision    *domain.VisionOutput
	Retrieval *domain.RetrievalOutput
	Anomaly   *domain.AnomalyOutput
	Forecasts *domain.Forecasts
	Summary   *domain.LLMSummary

	Record   *domain.AssessmentRecord
	Response *domain.UnifiedResponse
}

// Step 1: ClassifyStep decides the document type.
type ClassifyStep struct {
	Classifier *classifier.Classifier
}

func (s *ClassifyStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	state.Classification = s.Classifier.Classify(state.Content)
	log.Info().
		Str("content", domain.Kind(state.Content)).
		Str("document_type", string(state.Classification.Type)).
		Str("method", string(state.Classification.Method)).
		Float64("score", state.Classification.Score).
		Msg("Classified document")
	return nil
}

// Step 2: StandardizeStep converts tabular content into the typed record of
// its document type. Free text has nothing to standardize.
type StandardizeStep struct{}

func (s *StandardizeStep) Execute(ctx context.Context, state *PipelineState) error {
	tab, ok := state.Content.(*domain.Tabular)
	if !ok {
		return nil
	}

	switch state.Classification.Type {
	case domain.DocumentTypeBankStatement:
		stmt, err := standardize.BankStatement(ctx, tab, state.Classification.Mapping)
		if err != nil {
			return err
		}
		state.Statement = stmt
	case domain.DocumentTypeCreditBureau:
		in, err := standardize.CreditBureau(tab)
		if err != nil {
			return err
		}
		state.CreditBureau = in
	case domain.DocumentTypeKybKyc:
		in, err := standardize.KybKyc(tab)
		if err != nil {
			return err
		}
		state.KybKyc = in
	}
	return nil
}

// Step 3: MetricsStep derives metrics from a standardized statement.
type MetricsStep struct{}

func (s *MetricsStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Statement == nil {
		return nil
	}
	m := metrics.Derive(state.Statement, state.Signals)
	state.Metrics = &m
	return nil
}

// Step 4: ScoreStep runs the rule engine over derived metrics. Classified
// documents without metrics get the fixed placeholder assessment; unknown
// documents get none.
type ScoreStep struct {
	Engine *risk.Engine
}

func (s *ScoreStep) Execute(ctx context.Context, state *PipelineState) error {
	var a domain.RiskAssessment
	switch {
	case state.Metrics != nil:
		a = s.Engine.Assess(ctx, *state.Metrics)
	case state.Classification.Type != domain.DocumentTypeUnknown:
		a = risk.PlaceholderAssessment(state.Classification.Type)
	default:
		return nil
	}
	state.Assessment = &a

	log := logger.FromContext(ctx)
	log.Info().
		Float64("score", a.Score).
		Str("bin", string(a.Bin)).
		Str("decision", string(a.Decision)).
		Msg("Scored document")
	return nil
}

// Step 5: CollaboratorsStep merges the auxiliary analyses. A failing
// collaborator leaves its block empty.
type CollaboratorsStep struct {
	Set collaborators.Set
}

func (s *CollaboratorsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	warn := func(name string, err error) {
		log.Warn().Err(err).Str("collaborator", name).Msg("Collaborator failed, omitting output")
	}

	if s.Set.Vision != nil {
		out, err := s.Set.Vision.Analyze(ctx, state.Content)
		if err != nil {
			warn("vision", err)
		} else {
			state.Vision = out
		}
	}
	if s.Set.Retriever != nil {
		out, err := s.Set.Retriever.Retrieve(ctx, state.Content)
		if err != nil {
			warn("retrieval", err)
		} else {
			state.Retrieval = out
		}
	}
	if s.Set.Anomaly != nil {
		out, err := s.Set.Anomaly.Detect(ctx, state.Content)
		if err != nil {
			warn("anomaly", err)
		} else {
			state.Anomaly = out
		}
	}
	if s.Set.Forecaster != nil && state.Statement != nil && state.Metrics != nil {
		out, err := s.Set.Forecaster.Forecast(ctx, state.Statement, *state.Metrics)
		if err != nil {
			warn("forecast", err)
		} else {
			state.Forecasts = out
		}
	}
	if s.Set.Summarizer != nil && state.Assessment != nil {
		out, err := s.Set.Summarizer.Summarize(ctx, collaborators.SummaryInput{
			DocumentType: state.Classification.Type,
			Content:      state.Content,
			Metrics:      state.Metrics,
			Assessment:   *state.Assessment,
		})
		if err != nil {
			warn("summary", err)
		} else {
			state.Summary = out
		}
	}
	return nil
}

// Step 6: AssembleStep builds the unified response.
type AssembleStep struct{}

func (s *AssembleStep) Execute(ctx context.Context, state *PipelineState) error {
	extracted, err := extractedData(state)
	if err != nil {
		return err
	}

	resp := &domain.UnifiedResponse{
		DocumentID:      state.DocumentID,
		DocumentType:    state.Classification.Type,
		ExtractedData:   extracted,
		LLMSummary:      state.Summary,
		Forecasts:       state.Forecasts,
		VisionOutput:    state.Vision,
		RetrievalOutput: state.Retrieval,
		AnomalyOutput:   state.Anomaly,
	}

	if m := state.Metrics; m != nil {
		resp.CashflowMetrics = &m.Cashflow
		resp.LiquidityMetrics = &m.Liquidity
		resp.FinancialDisciplineMetrics = &m.Discipline
		resp.DebtServicingMetrics = &m.DebtServicing
		resp.RiskIndicators = &m.RiskIndicators
	}

	if a := state.Assessment; a != nil {
		score := a.Score
		resp.RiskScore = &score
		resp.RiskFactors = a.Rationale
		resp.RiskBin = a.Bin
		resp.Decision = a.Decision
	}

	state.Response = resp
	return nil
}

func extractedData(state *PipelineState) (json.RawMessage, error) {
	if state.Extracted != nil {
		return state.Extracted, nil
	}
	if state.Content == nil {
		return json.RawMessage("null"), nil
	}
	raw, err := domain.EncodeContent(state.Content)
	if err != nil {
		return nil, fmt.Errorf("assemble response: %w", err)
	}
	return raw, nil
}

// Step 7: PersistStep stores the assessment. A nil Repository only builds
// the record.
type PersistStep struct {
	Repository storage.AssessmentRepository
	Now        func() time.Time
}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	a := state.Assessment
	if a == nil {
		return nil
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	rec := &domain.AssessmentRecord{
		ID:           uuid.NewString(),
		DocumentID:   state.DocumentID,
		DocumentType: state.Classification.Type,
		Score:        a.Score,
		Bin:          a.Bin,
		Decision:     a.Decision,
		Rationale:    a.Rationale,
		CreatedAt:    now().UTC(),
	}
	if state.Metrics != nil {
		data, err := json.Marshal(state.Metrics)
		if err != nil {
			return fmt.Errorf("persist assessment: marshal metrics: %w", err)
		}
		rec.Metrics = data
	}

	if s.Repository != nil {
		if err := s.Repository.Save(ctx, rec); err != nil {
			return fmt.Errorf("persist assessment: %w", err)
		}
		log := logger.FromContext(ctx)
		log.Debug().Str("assessment_id", rec.ID).Msg("Saved assessment")
	}

	state.Record = rec
	if state.Response != nil {
		state.Response.AssessmentID = rec.ID
	}
	return nil
}

// Step 8: NotifyStep sends a risk alert. Alert failures are logged only.
type NotifyStep struct {
	Notifier notify.Notifier
}

func (s *NotifyStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Notifier == nil || state.Record == nil {
		return nil
	}
	if err := s.Notifier.Notify(ctx, state.Record); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Risk alert failed")
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
