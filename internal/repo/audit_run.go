package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/asset-audit/internal/models"
)

// ErrNotFound is returned when no audit run matches.
var ErrNotFound = errors.New("audit run not found")

// ========================
// REPOSITORY STRUCT
// ========================

// AuditRunRepo persists the headline numbers of each audit run.
type AuditRunRepo struct {
	db *sql.DB
}

func NewAuditRunRepo(db *sql.DB) *AuditRunRepo {
	return &AuditRunRepo{db: db}
}

// ========================
// SAVE RUN
// ========================

func (r *AuditRunRepo) Save(ctx context.Context, run models.AuditRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_runs (id, source_url, status_code, total_assets, high, medium, low, exposed, high_priority, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.SourceURL, run.StatusCode, run.TotalAssets,
		run.High, run.Medium, run.Low, run.Exposed, run.HighPriority, run.CreatedAt,
	)
	return err
}

// ========================
// LIST RUNS, NEWEST FIRST
// ========================

func (r *AuditRunRepo) List(ctx context.Context, limit, offset int) ([]models.AuditRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_url, status_code, total_assets, high, medium, low, exposed, high_priority, created_at
		 FROM audit_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []models.AuditRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ========================
// LATEST RUN
// ========================

func (r *AuditRunRepo) Latest(ctx context.Context) (models.AuditRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source_url, status_code, total_assets, high, medium, low, exposed, high_priority, created_at
		 FROM audit_runs ORDER BY created_at DESC LIMIT 1`,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuditRun{}, ErrNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (models.AuditRun, error) {
	var run models.AuditRun
	err := s.Scan(
		&run.ID,
		&run.SourceURL,
		&run.StatusCode,
		&run.TotalAssets,
		&run.High,
		&run.Medium,
		&run.Low,
		&run.Exposed,
		&run.HighPriority,
		&run.CreatedAt,
	)
	return run, err
}
