// Package collaborators defines the auxiliary analyses merged into the
// unified response and their default implementations.
package collaborators

import (
	"context"

	"github.com/dvloznov/docrisk/internal/domain"
)

// VisionAnalyzer finds text and object boxes in a document.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, content domain.Content) (*domain.VisionOutput, error)
}

// Retriever summarizes a document and returns its most relevant chunks.
type Retriever interface {
	Retrieve(ctx context.Context, content domain.Content) (*domain.RetrievalOutput, error)
}

// AnomalyDetector flags documents that look unusual.
type AnomalyDetector interface {
	Detect(ctx context.Context, content domain.Content) (*domain.AnomalyOutput, error)
}

// Forecaster projects cashflow and revenue from a standardized statement.
type Forecaster interface {
	Forecast(ctx context.Context, stmt *domain.BankStatement, m domain.Metrics) (*domain.Forecasts, error)
}

// SummaryInput is what a Summarizer sees of one analysis.
type SummaryInput struct {
	DocumentType domain.DocumentType
	Content      domain.Content
	Metrics      *domain.Metrics
	Assessment   domain.RiskAssessment
}

// Summarizer writes the narrative summary of an analysis.
type Summarizer interface {
	Summarize(ctx context.Context, in SummaryInput) (*domain.LLMSummary, error)
}

// Set groups the collaborators a pipeline calls. Nil members are skipped.
type Set struct {
	Vision     VisionAnalyzer
	Retriever  Retriever
	Anomaly    AnomalyDetector
	Forecaster Forecaster
	Summarizer Summarizer
}

// Stubs returns the static default implementations.
func Stubs() Set {
	return Set{
		Vision:     StubVision{},
		Retriever:  StubRetriever{},
		Anomaly:    StubAnomaly{},
		Forecaster: StubForecaster{},
		Summarizer: RationaleSummarizer{},
	}
}
