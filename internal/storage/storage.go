// Package storage persists analysis outcomes.
package storage

import (
	"context"
	"errors"

	"github.com/dvloznov/docrisk/internal/domain"
)

// ErrNotFound is returned when no assessment has the requested id.
var ErrNotFound = errors.New("assessment not found")

// DefaultListLimit caps List when the filter sets no limit.
const DefaultListLimit = 50

// AssessmentRepository stores assessment records.
type AssessmentRepository interface {
	Save(ctx context.Context, rec *domain.AssessmentRecord) error
	Get(ctx context.Context, id string) (*domain.AssessmentRecord, error)
	// List returns records newest first.
	List(ctx context.Context, filter Filter) ([]*domain.AssessmentRecord, error)
}

// Filter narrows List results.
type Filter struct {
	DocumentID string
	Limit      int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}
