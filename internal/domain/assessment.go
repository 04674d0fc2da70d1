package domain

import "time"

// RiskBin is the coarse risk category derived from a score.
type RiskBin string

const (
	RiskBinLow    RiskBin = "low"
	RiskBinMedium RiskBin = "medium"
	RiskBinHigh   RiskBin = "high"
)

// Rank orders bins from low to high. Unknown bins rank below low.
func (b RiskBin) Rank() int {
	switch b {
	case RiskBinLow:
		return 1
	case RiskBinMedium:
		return 2
	case RiskBinHigh:
		return 3
	}
	return 0
}

// Decision is the categorical verdict attached to a bin.
type Decision string

const (
	DecisionApproved       Decision = "Approved"
	DecisionReviewRequired Decision = "Review Required"
	DecisionRejected       Decision = "Rejected"
)

// RiskAssessment is the verdict of the rule engine.
type RiskAssessment struct {
	Score     float64  `json:"score"`
	Bin       RiskBin  `json:"bin"`
	Decision  Decision `json:"decision"`
	Rationale []string `json:"rationale"`
}

// AssessmentRecord is a persisted analysis outcome.
type AssessmentRecord struct {
	ID           string       `json:"id"`
	DocumentID   string       `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`
	Score        float64      `json:"score"`
	Bin          RiskBin      `json:"bin"`
	Decision     Decision     `json:"decision"`
	Rationale    []string     `json:"rationale"`
	// Metrics is the JSON encoding of the derived metrics, empty when none were derived.
	Metrics   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
