package collaborators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/risk"
)

// StubVision returns a fixed pair of detections.
type StubVision struct{}

func (StubVision) Analyze(_ context.Context, _ domain.Content) (*domain.VisionOutput, error) {
	return &domain.VisionOutput{
		TextDetections:   []domain.Detection{{Box: []int{10, 10, 20, 20}, Text: "sample text"}},
		ObjectDetections: []domain.Detection{{Box: []int{50, 50, 60, 60}, Label: "sample_object"}},
	}, nil
}

// RetrievalSummary is the fixed summary of StubRetriever.
const RetrievalSummary = "This is a summarized version of the document content."

const (
	chunkSize = 200
	maxChunks = 2
)

// StubRetriever returns a fixed summary and the leading chunks of the
// document text.
type StubRetriever struct{}

func (StubRetriever) Retrieve(_ context.Context, content domain.Content) (*domain.RetrievalOutput, error) {
	chunks := Chunks(ContentText(content), chunkSize)
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	relevant := make([]string, 0, len(chunks))
	for i, c := range chunks {
		relevant = append(relevant, fmt.Sprintf("chunk %d: %s", i+1, c))
	}
	return &domain.RetrievalOutput{Summary: RetrievalSummary, RelevantChunks: relevant}, nil
}

// StubAnomaly never flags an anomaly.
type StubAnomaly struct{}

func (StubAnomaly) Detect(_ context.Context, _ domain.Content) (*domain.AnomalyOutput, error) {
	return &domain.AnomalyOutput{IsAnomaly: false, AnomalyScore: 0.1, Reason: "No anomaly detected (stub)"}, nil
}

// StubForecaster repeats the current net cashflow and inflow forward.
type StubForecaster struct{}

var shortTermHorizons = []int{30, 60, 90}

const longTermMonths = 12

func (StubForecaster) Forecast(_ context.Context, stmt *domain.BankStatement, m domain.Metrics) (*domain.Forecasts, error) {
	if stmt == nil {
		return nil, fmt.Errorf("forecast: no statement")
	}

	out := &domain.Forecasts{
		ShortTermCashflowForecast: make([]domain.ForecastPoint, 0, len(shortTermHorizons)),
		LongTermRevenueProjection: make([]domain.ForecastPoint, 0, longTermMonths),
		LiquidityStressTestResults: &domain.StressTestResult{
			PredictedValue:     123.45,
			ConfidenceInterval: []float64{110, 135},
		},
	}
	for _, days := range shortTermHorizons {
		out.ShortTermCashflowForecast = append(out.ShortTermCashflowForecast, domain.ForecastPoint{
			Date:  stmt.EndDate.AddDays(days),
			Value: m.Cashflow.NetCashflow,
		})
	}
	end := stmt.EndDate.In(time.UTC)
	for month := 1; month <= longTermMonths; month++ {
		out.LongTermRevenueProjection = append(out.LongTermRevenueProjection, domain.ForecastPoint{
			Date:  civil.DateOf(end.AddDate(0, month, 0)),
			Value: m.Cashflow.TotalInflow,
		})
	}
	return out, nil
}

// RationaleSummarizer builds a summary from the assessment without a model.
type RationaleSummarizer struct{}

func (RationaleSummarizer) Summarize(_ context.Context, in SummaryInput) (*domain.LLMSummary, error) {
	a := in.Assessment
	out := &domain.LLMSummary{
		SummaryText: fmt.Sprintf("%s document scored %.0f (%s risk): %s.",
			in.DocumentType, a.Score, a.Bin, a.Decision),
		KeyInsights:        keyInsights(in.Metrics),
		RedFlagsIdentified: []string{},
	}
	for _, r := range a.Rationale {
		if r != risk.NoRulesTriggered {
			out.RedFlagsIdentified = append(out.RedFlagsIdentified, r)
		}
	}
	return out, nil
}

func keyInsights(m *domain.Metrics) []string {
	insights := []string{}
	if m == nil {
		return insights
	}
	add := func(label string, v *float64) {
		if v != nil {
			insights = append(insights, fmt.Sprintf("%s: %.2f", label, *v))
		}
	}
	add("Total inflow", m.Cashflow.TotalInflow)
	add("Total outflow", m.Cashflow.TotalOutflow)
	add("Net cashflow", m.Cashflow.NetCashflow)
	add("Current ratio", m.Liquidity.CurrentRatio)
	add("DSCR", m.DebtServicing.DSCR)
	if n := len(m.RiskIndicators.HighRiskTransactions); n > 0 {
		insights = append(insights, fmt.Sprintf("High-risk transactions: %d", n))
	}
	return insights
}

// ContentText flattens content into plain text. Tabular rows become one
// line each, with cells in header order.
func ContentText(content domain.Content) string {
	switch c := content.(type) {
	case *domain.Text:
		return c.Content
	case *domain.Tabular:
		var b strings.Builder
		for _, row := range c.Rows {
			cells := make([]string, 0, len(c.Headers))
			for _, h := range c.Headers {
				if v, ok := row[h]; ok && !domain.IsBlank(v) {
					cells = append(cells, fmt.Sprintf("%s: %v", h, v))
				}
			}
			b.WriteString(strings.Join(cells, ", "))
			b.WriteByte('\n')
		}
		return b.String()
	default:
		return ""
	}
}

// Chunks splits text on whitespace into pieces of at most size runes. A
// single word longer than size forms its own chunk.
func Chunks(text string, size int) []string {
	var (
		chunks []string
		cur    []string
		n      int
	)
	for _, w := range strings.Fields(text) {
		wl := len([]rune(w))
		if n > 0 && n+1+wl > size {
			chunks = append(chunks, strings.Join(cur, " "))
			cur, n = nil, 0
		}
		if n > 0 {
			n++
		}
		cur = append(cur, w)
		n += wl
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}
