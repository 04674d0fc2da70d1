// Package bigquery stores assessments in BigQuery and applies its schema
// migrations.
package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/docrisk/internal/domain"
)

// AssessmentRow mirrors the assessments table.
type AssessmentRow struct {
	ID           string            `bigquery:"id"`            // REQUIRED
	DocumentID   string            `bigquery:"document_id"`   // REQUIRED
	DocumentType string            `bigquery:"document_type"` // REQUIRED
	Score        float64           `bigquery:"score"`         // REQUIRED
	Bin          string            `bigquery:"bin"`           // REQUIRED
	Decision     string            `bigquery:"decision"`      // REQUIRED
	Rationale    []string          `bigquery:"rationale"`     // REPEATED
	Metrics      bigquery.NullJSON `bigquery:"metrics"`       // NULLABLE (JSON)
	CreatedAt    time.Time         `bigquery:"created_at"`    // REQUIRED
}

func rowFromRecord(rec *domain.AssessmentRecord) *AssessmentRow {
	rationale := rec.Rationale
	if rationale == nil {
		rationale = []string{}
	}

	row := &AssessmentRow{
		ID:           rec.ID,
		DocumentID:   rec.DocumentID,
		DocumentType: string(rec.DocumentType),
		Score:        rec.Score,
		Bin:          string(rec.Bin),
		Decision:     string(rec.Decision),
		Rationale:    rationale,
		CreatedAt:    rec.CreatedAt.UTC(),
	}
	if len(rec.Metrics) > 0 {
		row.Metrics = bigquery.NullJSON{JSONVal: string(rec.Metrics), Valid: true}
	}
	return row
}

func (r *AssessmentRow) record() *domain.AssessmentRecord {
	rec := &domain.AssessmentRecord{
		ID:           r.ID,
		DocumentID:   r.DocumentID,
		DocumentType: domain.DocumentType(r.DocumentType),
		Score:        r.Score,
		Bin:          domain.RiskBin(r.Bin),
		Decision:     domain.Decision(r.Decision),
		Rationale:    r.Rationale,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if rec.Rationale == nil {
		rec.Rationale = []string{}
	}
	if r.Metrics.Valid {
		rec.Metrics = []byte(r.Metrics.JSONVal)
	}
	return rec
}

func (r *AssessmentRow) parameters() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "id", Value: r.ID},
		{Name: "document_id", Value: r.DocumentID},
		{Name: "document_type", Value: r.DocumentType},
		{Name: "score", Value: r.Score},
		{Name: "bin", Value: r.Bin},
		{Name: "decision", Value: r.Decision},
		{Name: "rationale", Value: r.Rationale},
		{Name: "metrics", Value: r.Metrics},
		{Name: "created_at", Value: r.CreatedAt},
	}
}
