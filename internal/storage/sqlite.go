package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dvloznov/docrisk/internal/domain"
)

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository stores assessments in a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and ensures the
// assessments table exists. Pass ":memory:" for an in-memory database.
func OpenSQLite(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			score REAL NOT NULL,
			bin TEXT NOT NULL,
			decision TEXT NOT NULL,
			rationale TEXT NOT NULL,
			metrics TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_document ON assessments(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Save(ctx context.Context, rec *domain.AssessmentRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("assessment ID is required")
	}

	rationale, err := json.Marshal(rec.Rationale)
	if err != nil {
		return fmt.Errorf("marshal rationale: %w", err)
	}
	var metrics any
	if len(rec.Metrics) > 0 {
		metrics = string(rec.Metrics)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assessments
		(id, document_id, document_type, score, bin, decision, rationale, metrics, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.DocumentID, string(rec.DocumentType), rec.Score, string(rec.Bin),
		string(rec.Decision), string(rationale), metrics, rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert assessment %s: %w", rec.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, document_id, document_type, score, bin, decision, rationale, metrics, created_at FROM assessments`

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*domain.AssessmentRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]*domain.AssessmentRecord, error) {
	q := selectColumns
	var args []any
	if filter.DocumentID != "" {
		q += " WHERE document_id = ?"
		args = append(args, filter.DocumentID)
	}
	q += " ORDER BY created_at DESC, id ASC LIMIT ?"
	args = append(args, filter.limit())

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	result := []*domain.AssessmentRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.AssessmentRecord, error) {
	var (
		rec       domain.AssessmentRecord
		docType   string
		bin       string
		decision  string
		rationale string
		metrics   sql.NullString
		createdAt string
	)
	if err := s.Scan(&rec.ID, &rec.DocumentID, &docType, &rec.Score, &bin, &decision, &rationale, &metrics, &createdAt); err != nil {
		return nil, err
	}

	rec.DocumentType = domain.DocumentType(docType)
	rec.Bin = domain.RiskBin(bin)
	rec.Decision = domain.Decision(decision)
	if err := json.Unmarshal([]byte(rationale), &rec.Rationale); err != nil {
		return nil, fmt.Errorf("decode rationale: %w", err)
	}
	if metrics.Valid {
		rec.Metrics = []byte(metrics.String)
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

var _ AssessmentRepository = (*SQLiteRepository)(nil)
