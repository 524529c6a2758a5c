// Package analyzer implements the heuristic code analysis engine: three
// independent scans (complexity, security, style) over a code string, each
// producing a normalized 0-100 score plus an issue list.
//
// Every language maps to a strategy at lookup time: a structural/rule-based
// path where a grammar or rule table is wired, and a reduced-fidelity
// fallback everywhere else. Analysis never returns an error to the caller;
// internal tool failures degrade to the fallback path.
package analyzer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/domain/analysis"
)

type Engine struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// Analyze runs one analysis kind over code. The result's score is clamped
// to [0,100] and issues keep scan discovery order.
func (e *Engine) Analyze(ctx context.Context, code, language string, kind analysis.Kind) *analysis.Result {
	lang := Normalize(language)

	var r *analysis.Result
	switch kind {
	case analysis.KindSecurity:
		r = e.security(code, lang)
	case analysis.KindStyle:
		r = e.style(code, lang)
	default:
		r = e.complexity(ctx, code, lang)
	}

	r.Subject = "<inline>"
	r.Language = lang
	r.Kind = kind
	r.Score = clampScore(r.Score)
	r.CreatedAt = time.Now().UTC()
	return r
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
