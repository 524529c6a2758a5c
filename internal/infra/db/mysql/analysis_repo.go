package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/codepilot/internal/domain/analysis"
)

// AnalysisRepository stores analysis results in MySQL. Expected table:
//
//	CREATE TABLE analysis_results (
//	  id               VARCHAR(36) PRIMARY KEY,
//	  subject          VARCHAR(255) NOT NULL,
//	  language         VARCHAR(64)  NOT NULL,
//	  kind             VARCHAR(32)  NOT NULL,
//	  score            DOUBLE       NOT NULL,
//	  issues_json      JSON         NOT NULL,
//	  suggestions_json JSON         NOT NULL,
//	  metrics_json     JSON         NOT NULL,
//	  created_at       DATETIME(6)  NOT NULL,
//	  INDEX idx_analysis_created (created_at DESC)
//	);
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Append inserts an analysis result. The store is append-only.
func (r *AnalysisRepository) Append(ctx context.Context, a *domain.Result) (string, error) {
	const q = `
INSERT INTO analysis_results
  (id, subject, language, kind, score, issues_json, suggestions_json, metrics_json, created_at)
VALUES (?,?,?,?,?,?,?,?,?);
`
	issues, suggestions, metrics, err := marshalResult(a)
	if err != nil {
		return "", err
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, q,
		a.ID, a.Subject, a.Language, string(a.Kind), a.Score,
		issues, suggestions, metrics, created,
	)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Result, error) {
	const q = `
SELECT id, subject, language, kind, score, issues_json, suggestions_json, metrics_json, created_at
FROM analysis_results
WHERE id=? LIMIT 1;
`
	return scanResult(r.db.QueryRowContext(ctx, q, id))
}

// Latest results ordered newest first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, subject, language, kind, score, issues_json, suggestions_json, metrics_json, created_at
FROM analysis_results
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func marshalResult(a *domain.Result) (string, string, string, error) {
	issues, err := json.Marshal(a.Issues)
	if err != nil {
		return "", "", "", err
	}
	suggestions, err := json.Marshal(a.Suggestions)
	if err != nil {
		return "", "", "", err
	}
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return "", "", "", err
	}
	return string(issues), string(suggestions), string(metrics), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*domain.Result, error) {
	var a domain.Result
	var kind, issues, suggestions, metrics string
	var created time.Time
	if err := row.Scan(&a.ID, &a.Subject, &a.Language, &kind, &a.Score,
		&issues, &suggestions, &metrics, &created); err != nil {
		return nil, err
	}
	a.Kind = domain.Kind(kind)
	if err := json.Unmarshal([]byte(issues), &a.Issues); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(suggestions), &a.Suggestions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metrics), &a.Metrics); err != nil {
		return nil, err
	}
	a.CreatedAt = created
	return &a, nil
}
