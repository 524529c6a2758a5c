package analysis

import (
	"time"
)

// Kind enum
type Kind string

const (
	KindComplexity Kind = "complexity"
	KindSecurity   Kind = "security"
	KindStyle      Kind = "style"
)

// Kinds lists every analysis kind the aggregator runs.
var Kinds = []Kind{KindComplexity, KindSecurity, KindStyle}

// Severity enum
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is a single finding inside a Result. Issues keep scan discovery
// order; they are never sorted by line.
type Issue struct {
	Type     string   `json:"type"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Aggregate Root: Result
// A Result is immutable once produced and persisted append-only.
type Result struct {
	ID          string         `json:"id"`
	Subject     string         `json:"subject"`
	Language    string         `json:"language"`
	Kind        Kind           `json:"kind"`
	Score       float64        `json:"score"`
	Issues      []Issue        `json:"issues"`
	Suggestions []string       `json:"suggestions"`
	Metrics     map[string]any `json:"metrics"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Report bundles the three independent analyses of one code submission.
type Report struct {
	Complexity  *Result `json:"complexity"`
	Security    *Result `json:"security"`
	Style       *Result `json:"style"`
	ArtifactURL string  `json:"artifact_url,omitempty"`
}
