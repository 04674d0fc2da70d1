// Package api assembles the HTTP router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dvloznov/docrisk/internal/api/handlers"
	"github.com/dvloznov/docrisk/internal/api/middleware"
	"github.com/dvloznov/docrisk/internal/extract"
	"github.com/dvloznov/docrisk/internal/jobs"
	"github.com/dvloznov/docrisk/internal/storage"
)

// Deps are the components behind the routes. Repository and JobStore may
// be nil, which leaves their read endpoints unmounted.
type Deps struct {
	Analyzer   handlers.Analyzer
	Extractor  *extract.Service
	Documents  handlers.DocumentsConfig
	Repository storage.AssessmentRepository
	JobStore   jobs.JobStore
	Log        zerolog.Logger
}

// NewRouter creates the chi router with all routes mounted.
func NewRouter(d Deps) http.Handler {
	documents := handlers.NewDocumentsHandler(d.Analyzer, d.Extractor, d.Documents)
	risk := handlers.NewRiskHandler(d.Analyzer)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/livez", handlers.Livez)
		r.Get("/readyz", handlers.Readyz)
	})

	r.Route("/document", func(r chi.Router) {
		r.Post("/analyze-document", documents.AnalyzeDocument)
		r.Post("/upload-file-for-analysis", documents.UploadFileForAnalysis)
		r.Post("/analyze-async", documents.AnalyzeAsync)
	})

	r.Post("/risk/risk-score", risk.RiskScore)

	if d.Repository != nil {
		assessments := handlers.NewAssessmentsHandler(d.Repository)
		r.Get("/assessments", assessments.ListAssessments)
		r.Get("/assessments/{id}", assessments.GetAssessment)
	}

	if d.JobStore != nil {
		jobsHandler := handlers.NewJobsHandler(d.JobStore)
		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/jobs/{id}", jobsHandler.GetJob)
	}

	return r
}
