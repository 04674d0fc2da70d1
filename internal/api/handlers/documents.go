package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dvloznov/docrisk/internal/api/middleware"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/extract"
	"github.com/dvloznov/docrisk/internal/gcs"
	"github.com/dvloznov/docrisk/internal/jobs"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/pipeline"
)

const defaultMaxUploadBytes = 32 << 20

// DocumentsHandler handles document analysis endpoints.
type DocumentsHandler struct {
	analyzer  Analyzer
	extractor *extract.Service
	storage   gcs.StorageService
	bucket    string
	publisher jobs.Publisher
	maxUpload int64
}

// DocumentsConfig holds the optional parts of a DocumentsHandler. A nil
// Storage or empty Bucket disables archiving; a nil Publisher disables
// async analysis.
type DocumentsConfig struct {
	Storage        gcs.StorageService
	Bucket         string
	Publisher      jobs.Publisher
	MaxUploadBytes int64
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(analyzer Analyzer, extractor *extract.Service, cfg DocumentsConfig) *DocumentsHandler {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &DocumentsHandler{
		analyzer:  analyzer,
		extractor: extractor,
		storage:   cfg.Storage,
		bucket:    cfg.Bucket,
		publisher: cfg.Publisher,
		maxUpload: maxUpload,
	}
}

// analyzeRequest is the analyze-document body. The fields may also arrive
// wrapped in a "document" object.
type analyzeRequest struct {
	DocumentID string                 `json:"document_id"`
	Content    json.RawMessage        `json:"content"`
	Metadata   map[string]any         `json:"metadata"`
	Signals    domain.ExternalSignals `json:"signals"`
	GCSURI     string                 `json:"gcs_uri"`

	Document *analyzeRequest `json:"document"`
}

func (req *analyzeRequest) unwrap() *analyzeRequest {
	if req.Document != nil && len(req.Content) == 0 && req.GCSURI == "" {
		return req.Document
	}
	return req
}

func hasContent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// AnalyzeDocument handles POST /document/analyze-document
func (h *DocumentsHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := decodeJSON(r, &body); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := body.unwrap()

	if !hasContent(req.Content) {
		middleware.WriteError(w, http.StatusBadRequest, "content is required")
		return
	}

	resp, err := h.analyzer.Analyze(r.Context(), pipeline.AnalyzeRequest{
		DocumentID: req.DocumentID,
		Content:    domain.DecodeContent(req.Content),
		Extracted:  req.Content,
		Signals:    req.Signals,
	})
	if err != nil {
		writeAnalysisError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// UploadFileForAnalysis handles POST /document/upload-file-for-analysis
// The multipart form carries "file" plus optional "document_id" and a
// "signals" JSON object.
func (h *DocumentsHandler) UploadFileForAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !extract.Supported(filename) {
		middleware.WriteError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("%s: %q", domain.ErrUnsupportedFormat, filepath.Ext(filename)))
		return
	}

	var signals domain.ExternalSignals
	if raw := r.FormValue("signals"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &signals); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid signals")
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	if h.storage != nil && h.bucket != "" {
		object := gcs.ObjectName(filename, time.Now())
		uri, err := h.storage.Upload(ctx, h.bucket, object, header.Header.Get("Content-Type"), bytes.NewReader(data))
		if err != nil {
			log.Warn().Err(err).Str("filename", filename).Msg("Failed to archive upload")
		} else {
			log.Info().Str("gcs_uri", uri).Int("bytes", len(data)).Msg("Archived upload")
		}
	}

	content, err := h.extractor.Extract(ctx, filename, data)
	if err != nil {
		writeAnalysisError(w, r, err)
		return
	}

	resp, err := h.analyzer.Analyze(ctx, pipeline.AnalyzeRequest{
		DocumentID: r.FormValue("document_id"),
		Content:    content,
		Signals:    signals,
	})
	if err != nil {
		writeAnalysisError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// AnalyzeAsync handles POST /document/analyze-async
// The body is an analyze-document body, or one naming a gs:// object in
// gcs_uri instead of content.
func (h *DocumentsHandler) AnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Async analysis is not enabled")
		return
	}

	var body analyzeRequest
	if err := decodeJSON(r, &body); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := body.unwrap()

	job := &jobs.AnalyzeDocumentJob{
		DocumentID: req.DocumentID,
		Signals:    req.Signals,
	}
	switch {
	case req.GCSURI != "":
		if _, _, err := gcs.ParseURI(req.GCSURI); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !extract.Supported(gcs.FilenameFromURI(req.GCSURI)) {
			middleware.WriteError(w, http.StatusUnsupportedMediaType,
				fmt.Sprintf("%s: %q", domain.ErrUnsupportedFormat, filepath.Ext(req.GCSURI)))
			return
		}
		job.GCSURI = req.GCSURI
	case hasContent(req.Content):
		job.Content = req.Content
	default:
		middleware.WriteError(w, http.StatusBadRequest, "content or gcs_uri is required")
		return
	}

	if err := h.publisher.PublishAnalyzeDocument(r.Context(), job); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	log := logger.FromContext(r.Context())
	log.Info().
		Str("job_id", job.JobID).
		Str("document_id", job.DocumentID).
		Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"document_id": job.DocumentID,
		"status":      string(jobs.JobStatusPending),
	})
}
