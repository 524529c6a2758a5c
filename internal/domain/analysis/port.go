package analysis

import "context"

// Repository port (interface untuk persistence)
// Results are append-only: no update, no delete.
type Repository interface {
	Append(ctx context.Context, r *Result) (string, error)
	Get(ctx context.Context, id string) (*Result, error)
	Latest(ctx context.Context, limit int) ([]*Result, error)
}

// ReportStore port (interface untuk penyimpanan artefak laporan)
type ReportStore interface {
	UploadReport(ctx context.Context, key string, data []byte) (string, error)
}
