// Package pipeline sequences classification, standardization, metrics and
// risk scoring for one document and assembles the unified response.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dvloznov/docrisk/internal/classifier"
	"github.com/dvloznov/docrisk/internal/collaborators"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/notify"
	"github.com/dvloznov/docrisk/internal/risk"
	"github.com/dvloznov/docrisk/internal/storage"
)

// Deps are the components an Analyzer runs. Classifier and Engine are
// required; the rest may be nil or zero.
type Deps struct {
	Classifier    *classifier.Classifier
	Engine        *risk.Engine
	Collaborators collaborators.Set
	Repository    storage.AssessmentRepository
	Notifier      notify.Notifier
}

// AnalyzeRequest is one document to analyze.
type AnalyzeRequest struct {
	// DocumentID defaults to a fresh UUID.
	DocumentID string
	Content    domain.Content
	// Extracted is the raw payload to echo back. Nil encodes Content.
	Extracted json.RawMessage
	Signals   domain.ExternalSignals
}

// Analyzer runs the analysis pipeline. It is safe for concurrent use: every
// call gets its own state and the shared components are read-only.
type Analyzer struct {
	pipeline *Pipeline
	engine   *risk.Engine
}

// NewAnalyzer creates the standard 8-step analysis pipeline.
func NewAnalyzer(d Deps) *Analyzer {
	return &Analyzer{
		pipeline: NewPipeline(
			&ClassifyStep{Classifier: d.Classifier},
			&StandardizeStep{},
			&MetricsStep{},
			&ScoreStep{Engine: d.Engine},
			&CollaboratorsStep{Set: d.Collaborators},
			&AssembleStep{},
			&PersistStep{Repository: d.Repository},
			&NotifyStep{Notifier: d.Notifier},
		),
		engine: d.Engine,
	}
}

// Analyze classifies, standardizes and scores one document. Empty datasets
// and schema validation failures are returned as errors matching
// domain.IsClientError.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.UnifiedResponse, error) {
	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	log := logger.FromContext(ctx).With().Str("document_id", documentID).Logger()
	ctx = logger.WithContext(ctx, log)

	state := &PipelineState{
		DocumentID: documentID,
		Content:    req.Content,
		Extracted:  req.Extracted,
		Signals:    req.Signals,
	}
	if err := a.pipeline.Execute(ctx, state); err != nil {
		log.Warn().Err(err).Msg("Document analysis failed")
		return nil, err
	}
	return state.Response, nil
}

// Score runs the rule engine directly over supplied metrics.
func (a *Analyzer) Score(ctx context.Context, m domain.Metrics) domain.RiskAssessment {
	return a.engine.Assess(ctx, m)
}

// Rules returns the loaded rule set.
func (a *Analyzer) Rules() []risk.Rule {
	return a.engine.Rules()
}
