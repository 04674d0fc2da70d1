package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/docrisk/internal/domain"
)

// MemoryRepository keeps assessments in memory. It is safe for concurrent
// use and loses its data on restart.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.AssessmentRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*domain.AssessmentRecord)}
}

func (r *MemoryRepository) Save(_ context.Context, rec *domain.AssessmentRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("assessment ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = copyRecord(rec)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*domain.AssessmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyRecord(rec), nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]*domain.AssessmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*domain.AssessmentRecord{}
	for _, rec := range r.records {
		if filter.DocumentID != "" && rec.DocumentID != filter.DocumentID {
			continue
		}
		result = append(result, copyRecord(rec))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if n := filter.limit(); n < len(result) {
		result = result[:n]
	}
	return result, nil
}

func copyRecord(rec *domain.AssessmentRecord) *domain.AssessmentRecord {
	c := *rec
	c.Rationale = append([]string(nil), rec.Rationale...)
	c.Metrics = append([]byte(nil), rec.Metrics...)
	return &c
}

var _ AssessmentRepository = (*MemoryRepository)(nil)
