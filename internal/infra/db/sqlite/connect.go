package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_results (
  id               TEXT PRIMARY KEY,
  subject          TEXT NOT NULL,
  language         TEXT NOT NULL,
  kind             TEXT NOT NULL,
  score            REAL NOT NULL,
  issues_json      TEXT NOT NULL,
  suggestions_json TEXT NOT NULL,
  metrics_json     TEXT NOT NULL,
  created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_created ON analysis_results (created_at DESC);

CREATE TABLE IF NOT EXISTS ai_responses (
  id               TEXT PRIMARY KEY,
  task             TEXT NOT NULL,
  language         TEXT NOT NULL,
  input_code       TEXT NOT NULL,
  output_code      TEXT NOT NULL,
  explanation      TEXT NOT NULL,
  confidence       REAL NOT NULL,
  suggestions_json TEXT NOT NULL,
  processing_ms    INTEGER NOT NULL,
  demo             INTEGER NOT NULL,
  created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS collaboration_sessions (
  id                TEXT PRIMARY KEY,
  participants_json TEXT NOT NULL,
  content           TEXT NOT NULL,
  language          TEXT NOT NULL,
  created_at        TEXT NOT NULL,
  last_modified     TEXT NOT NULL,
  active            INTEGER NOT NULL
);
`

// Connect opens (or creates) the sqlite database at path and applies the
// schema. A single connection avoids SQLITE_BUSY under concurrent writers.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
