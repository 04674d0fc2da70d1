package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dvloznov/docrisk/internal/api/middleware"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/storage"
)

// AssessmentsHandler serves persisted assessments.
type AssessmentsHandler struct {
	repo storage.AssessmentRepository
}

func NewAssessmentsHandler(repo storage.AssessmentRepository) *AssessmentsHandler {
	return &AssessmentsHandler{repo: repo}
}

// assessmentDetail adds the stored metrics to a record.
type assessmentDetail struct {
	*domain.AssessmentRecord
	Metrics json.RawMessage `json:"metrics"`
}

// ListAssessments handles GET /assessments
func (h *AssessmentsHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", storage.DefaultListLimit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.repo.List(r.Context(), storage.Filter{
		DocumentID: r.URL.Query().Get("document_id"),
		Limit:      limit,
	})
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to list assessments")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list assessments")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": records,
		"count":       len(records),
	})
}

// GetAssessment handles GET /assessments/{id}
func (h *AssessmentsHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Assessment not found")
		return
	}
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("assessment_id", id).Msg("Failed to get assessment")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get assessment")
		return
	}

	detail := assessmentDetail{AssessmentRecord: rec, Metrics: rec.Metrics}
	if len(detail.Metrics) == 0 {
		detail.Metrics = json.RawMessage("null")
	}
	middleware.WriteJSON(w, http.StatusOK, detail)
}
