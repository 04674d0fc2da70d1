package domain

import (
	"encoding/json"

	"cloud.google.com/go/civil"
)

// Detection is one text or object box found by the vision collaborator.
type Detection struct {
	Box   []int  `json:"box"`
	Text  string `json:"text,omitempty"`
	Label string `json:"label,omitempty"`
}

type VisionOutput struct {
	TextDetections   []Detection `json:"text_detections"`
	ObjectDetections []Detection `json:"object_detections"`
}

type RetrievalOutput struct {
	Summary        string   `json:"summary"`
	RelevantChunks []string `json:"relevant_chunks"`
}

type AnomalyOutput struct {
	IsAnomaly    bool    `json:"is_anomaly"`
	AnomalyScore float64 `json:"anomaly_score"`
	Reason       string  `json:"reason,omitempty"`
}

type LLMSummary struct {
	SummaryText        string   `json:"summary_text"`
	KeyInsights        []string `json:"key_insights"`
	RedFlagsIdentified []string `json:"red_flags_identified"`
}

// ForecastPoint is one dated forecast value.
type ForecastPoint struct {
	Date  civil.Date `json:"date"`
	Value *float64   `json:"value"`
}

type StressTestResult struct {
	PredictedValue     float64   `json:"predicted_value"`
	ConfidenceInterval []float64 `json:"confidence_interval"`
}

type Forecasts struct {
	ShortTermCashflowForecast  []ForecastPoint   `json:"short_term_cashflow_forecast"`
	LongTermRevenueProjection  []ForecastPoint   `json:"long_term_revenue_projection"`
	LiquidityStressTestResults *StressTestResult `json:"liquidity_stress_test_results"`
}

// UnifiedResponse is the analysis output for one document. Metric blocks
// are omitted for document types that do not produce them.
type UnifiedResponse struct {
	DocumentID    string          `json:"document_id"`
	AssessmentID  string          `json:"assessment_id,omitempty"`
	DocumentType  DocumentType    `json:"document_type"`
	ExtractedData json.RawMessage `json:"extracted_data"`

	CashflowMetrics            *CashflowMetrics            `json:"cashflow_metrics,omitempty"`
	LiquidityMetrics           *LiquidityMetrics           `json:"liquidity_metrics,omitempty"`
	FinancialDisciplineMetrics *FinancialDisciplineMetrics `json:"financial_discipline_metrics,omitempty"`
	DebtServicingMetrics       *DebtServicingMetrics       `json:"debt_servicing_metrics,omitempty"`
	RiskIndicators             *RiskIndicators             `json:"risk_indicators,omitempty"`

	LLMSummary *LLMSummary `json:"llm_summary,omitempty"`
	Forecasts  *Forecasts  `json:"forecasts,omitempty"`

	RiskScore   *float64 `json:"risk_score,omitempty"`
	RiskFactors []string `json:"risk_factors,omitempty"`
	RiskBin     RiskBin  `json:"risk_bin,omitempty"`
	Decision    Decision `json:"decision,omitempty"`

	VisionOutput    *VisionOutput    `json:"cv_output,omitempty"`
	RetrievalOutput *RetrievalOutput `json:"rag_output,omitempty"`
	AnomalyOutput   *AnomalyOutput   `json:"anomaly_output,omitempty"`
}
