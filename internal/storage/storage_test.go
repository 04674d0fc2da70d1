package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/docrisk/internal/domain"
)

func record(id, documentID string, createdAt time.Time) *domain.AssessmentRecord {
	return &domain.AssessmentRecord{
		ID:           id,
		DocumentID:   documentID,
		DocumentType: domain.DocumentTypeBankStatement,
		Score:        35,
		Bin:          domain.RiskBinMedium,
		Decision:     domain.DecisionReviewRequired,
		Rationale:    []string{"Negative net cashflow (-150)", "Poor short-term liquidity"},
		Metrics:      []byte(`{"cashflow_metrics":{"net_cashflow":-150}}`),
		CreatedAt:    createdAt,
	}
}

func repositories(t *testing.T) map[string]AssessmentRepository {
	t.Helper()
	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]AssessmentRepository{
		"memory": NewMemoryRepository(),
		"sqlite": sqlite,
	}
}

func TestRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 30, 0, 123000000, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			want := record("a-1", "doc-1", created)
			require.NoError(t, repo.Save(ctx, want))

			got, err := repo.Get(ctx, "a-1")
			require.NoError(t, err)

			assert.Equal(t, want.DocumentID, got.DocumentID)
			assert.Equal(t, want.DocumentType, got.DocumentType)
			assert.Equal(t, want.Score, got.Score)
			assert.Equal(t, want.Bin, got.Bin)
			assert.Equal(t, want.Decision, got.Decision)
			assert.Equal(t, want.Rationale, got.Rationale)
			assert.JSONEq(t, string(want.Metrics), string(got.Metrics))
			assert.True(t, created.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)
		})
	}
}

func TestRepository_GetMissing(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Get(context.Background(), "nope")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestRepository_SaveRequiresID(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			err := repo.Save(context.Background(), record("", "doc-1", time.Now()))
			assert.Error(t, err)
		})
	}
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.Save(ctx, record("a-1", "doc-1", base)))
			require.NoError(t, repo.Save(ctx, record("a-2", "doc-2", base.Add(time.Hour))))
			require.NoError(t, repo.Save(ctx, record("a-3", "doc-1", base.Add(2*time.Hour))))

			all, err := repo.List(ctx, Filter{})
			require.NoError(t, err)
			assert.Equal(t, []string{"a-3", "a-2", "a-1"}, ids(all))

			limited, err := repo.List(ctx, Filter{Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, []string{"a-3", "a-2"}, ids(limited))

			byDoc, err := repo.List(ctx, Filter{DocumentID: "doc-1"})
			require.NoError(t, err)
			assert.Equal(t, []string{"a-3", "a-1"}, ids(byDoc))

			none, err := repo.List(ctx, Filter{DocumentID: "doc-9"})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestRepository_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			rec := record("a-1", "doc-1", time.Now())
			require.NoError(t, repo.Save(ctx, rec))

			rec.Score = 90
			rec.Metrics = nil
			require.NoError(t, repo.Save(ctx, rec))

			got, err := repo.Get(ctx, "a-1")
			require.NoError(t, err)
			assert.Equal(t, 90.0, got.Score)
			assert.Empty(t, got.Metrics)
		})
	}
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Save(ctx, record("a-1", "doc-1", time.Now())))

	got, err := repo.Get(ctx, "a-1")
	require.NoError(t, err)
	got.Rationale[0] = "changed"

	again, err := repo.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Negative net cashflow (-150)", again.Rationale[0])
}

func ids(recs []*domain.AssessmentRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
