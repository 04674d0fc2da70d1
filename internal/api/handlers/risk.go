package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dvloznov/docrisk/internal/api/middleware"
	"github.com/dvloznov/docrisk/internal/domain"
)

// RiskHandler scores caller-supplied metrics.
type RiskHandler struct {
	analyzer Analyzer
}

func NewRiskHandler(analyzer Analyzer) *RiskHandler {
	return &RiskHandler{analyzer: analyzer}
}

type riskScoreRequest struct {
	DocumentID string `json:"document_id"`
	domain.Metrics
}

type riskScoreResponse struct {
	DocumentID       string                `json:"document_id"`
	RiskEngineOutput domain.RiskAssessment `json:"risk_engine_output"`
}

// RiskScore handles POST /risk/risk-score
func (h *RiskHandler) RiskScore(w http.ResponseWriter, r *http.Request) {
	var req riskScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	middleware.WriteJSON(w, http.StatusOK, riskScoreResponse{
		DocumentID:       documentID,
		RiskEngineOutput: h.analyzer.Score(r.Context(), req.Metrics),
	})
}
