package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/codepilot/internal/domain/assist"
)

type ResponseRepository struct {
	db *sql.DB
}

func NewResponseRepository(db *sql.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Append inserts one assistant response.
func (r *ResponseRepository) Append(ctx context.Context, a *domain.Response) (string, error) {
	const q = `
INSERT INTO ai_responses
  (id, task, language, input_code, output_code, explanation, confidence,
   suggestions_json, processing_ms, demo, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?);
`
	suggestions, err := json.Marshal(a.Suggestions)
	if err != nil {
		return "", err
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	demo := 0
	if a.Demo {
		demo = 1
	}

	_, err = r.db.ExecContext(ctx, q,
		a.ID, string(a.Task), a.Language, a.InputCode, a.OutputCode,
		a.Explanation, a.Confidence, string(suggestions), a.ProcessingMS,
		demo, created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}
