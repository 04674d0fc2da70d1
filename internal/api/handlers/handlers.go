// Package handlers implements the HTTP endpoints of the analysis service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/docrisk/internal/api/middleware"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/pipeline"
)

// Analyzer runs the document pipeline and the rule engine.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*domain.UnifiedResponse, error)
	Score(ctx context.Context, m domain.Metrics) domain.RiskAssessment
}

// writeAnalysisError maps pipeline failures to HTTP statuses: problems with
// the submitted document are 400, unknown file types 415, the rest 500.
func writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsClientError(err):
		middleware.WriteError(w, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, domain.ErrUnsupportedFormat):
		middleware.WriteError(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Document analysis failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to analyze document")
	}
}

// clientMessage strips the pipeline step prefix from client errors.
func clientMessage(err error) string {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	if errors.Is(err, domain.ErrEmptyDataset) {
		return domain.ErrEmptyDataset.Error()
	}
	return err.Error()
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// queryInt parses a non-negative integer query parameter. Absent means def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}
