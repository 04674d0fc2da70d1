package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/storage"
)

const assessmentColumns = `id, document_id, document_type, score, bin, decision, rationale, metrics, created_at`

// AssessmentRepository implements storage.AssessmentRepository on BigQuery.
// It holds a shared client to avoid creating a new connection for each
// operation.
type AssessmentRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewAssessmentRepository creates a repository with its own client.
func NewAssessmentRepository(ctx context.Context, projectID, datasetID string) (*AssessmentRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewAssessmentRepository: creating client: %w", err)
	}
	return &AssessmentRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *AssessmentRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *AssessmentRepository) table() string {
	return fmt.Sprintf("`%s.%s.assessments`", r.projectID, r.datasetID)
}

// Save upserts a record by id. Uses DML to avoid streaming buffer issues.
func (r *AssessmentRepository) Save(ctx context.Context, rec *domain.AssessmentRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("assessment ID is required")
	}

	q := r.client.Query(`
		MERGE ` + r.table() + ` T
		USING (SELECT @id AS id) S
		ON T.id = S.id
		WHEN MATCHED THEN UPDATE SET
			document_id = @document_id,
			document_type = @document_type,
			score = @score,
			bin = @bin,
			decision = @decision,
			rationale = @rationale,
			metrics = @metrics,
			created_at = @created_at
		WHEN NOT MATCHED THEN INSERT (` + assessmentColumns + `)
		VALUES (
			@id, @document_id, @document_type,
			@score, @bin, @decision,
			@rationale, @metrics, @created_at
		)
	`)
	q.Parameters = rowFromRecord(rec).parameters()

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("SaveAssessment: running merge query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("SaveAssessment: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("SaveAssessment: job error: %w", err)
	}

	return nil
}

// Get returns the record with the given id or storage.ErrNotFound.
func (r *AssessmentRepository) Get(ctx context.Context, id string) (*domain.AssessmentRecord, error) {
	q := r.client.Query(`
		SELECT ` + assessmentColumns + `
		FROM ` + r.table() + `
		WHERE id = @id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAssessment: reading query: %w", err)
	}

	var row AssessmentRow
	err = it.Next(&row)
	if errors.Is(err, iterator.Done) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetAssessment: reading row: %w", err)
	}
	return row.record(), nil
}

// List returns records newest first.
func (r *AssessmentRepository) List(ctx context.Context, filter storage.Filter) ([]*domain.AssessmentRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	q := r.client.Query(`
		SELECT ` + assessmentColumns + `
		FROM ` + r.table() + `
		WHERE (@document_id = '' OR document_id = @document_id)
		ORDER BY created_at DESC, id ASC
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: filter.DocumentID},
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAssessments: reading query: %w", err)
	}

	records := []*domain.AssessmentRecord{}
	for {
		var row AssessmentRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAssessments: iterating rows: %w", err)
		}
		records = append(records, row.record())
	}
	return records, nil
}

var _ storage.AssessmentRepository = (*AssessmentRepository)(nil)
