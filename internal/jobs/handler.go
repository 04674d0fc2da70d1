package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/pipeline"
)

// Analyzer runs the document pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*domain.UnifiedResponse, error)
}

// Loader fetches and extracts a stored document.
type Loader interface {
	Load(ctx context.Context, uri string) (domain.Content, error)
}

// NewAnalyzeHandler returns a JobHandler that analyzes AnalyzeDocumentJobs
// and stores the response on the job. Client errors and unsupported formats
// are permanent. loader may be nil when no job carries a GCS URI.
func NewAnalyzeHandler(analyzer Analyzer, loader Loader) JobHandler {
	return func(ctx context.Context, job Job) error {
		j, ok := job.(*AnalyzeDocumentJob)
		if !ok {
			return Permanent(fmt.Errorf("unsupported job type %s", job.GetType()))
		}

		req := pipeline.AnalyzeRequest{
			DocumentID: j.DocumentID,
			Signals:    j.Signals,
		}

		switch {
		case j.GCSURI != "":
			if loader == nil {
				return Permanent(errors.New("no document loader configured"))
			}
			content, err := loader.Load(ctx, j.GCSURI)
			if err != nil {
				if errors.Is(err, domain.ErrUnsupportedFormat) {
					return Permanent(err)
				}
				return fmt.Errorf("load %s: %w", j.GCSURI, err)
			}
			req.Content = content
		case len(j.Content) > 0:
			req.Content = domain.DecodeContent(j.Content)
			req.Extracted = j.Content
		default:
			return Permanent(errors.New("job has no content"))
		}

		resp, err := analyzer.Analyze(ctx, req)
		if err != nil {
			if domain.IsClientError(err) {
				return Permanent(err)
			}
			return err
		}

		j.Result = resp
		log := logger.FromContext(ctx)
		log.Debug().Str("document_type", string(resp.DocumentType)).Msg("Analysis job finished")
		return nil
	}
}
