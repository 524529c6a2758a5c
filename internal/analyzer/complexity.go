package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/domain/analysis"
)

// complexityKeywords drive the fallback token-count heuristic for languages
// without a structural grammar.
var complexityKeywords = []string{
	"if", "else", "for", "while", "switch", "case", "try", "catch",
}

const (
	complexityIssueThreshold = 10
	complexityHighThreshold  = 15
)

func (e *Engine) complexity(ctx context.Context, code, lang string) *analysis.Result {
	if g := capabilityFor(lang).grammar; g != nil {
		res, err := structuralComplexity(ctx, g, code)
		if err == nil {
			return res
		}
		// Tool failure degrades to the fallback heuristic, never to the caller.
		e.log.Warn("structural complexity analysis failed, falling back",
			zap.String("language", lang),
			zap.Error(err),
		)
	}
	return fallbackComplexity(code)
}

func structuralComplexity(ctx context.Context, g *grammar, code string) (*analysis.Result, error) {
	units, err := parseUnits(ctx, g, []byte(code))
	if err != nil {
		return nil, err
	}

	issues := []analysis.Issue{}
	suggestions := []string{}
	total := 0
	for _, u := range units {
		total += u.complexity
		if u.complexity > complexityIssueThreshold {
			sev := analysis.SeverityMedium
			if u.complexity > complexityHighThreshold {
				sev = analysis.SeverityHigh
			}
			issues = append(issues, analysis.Issue{
				Type:     "high_complexity",
				Line:     u.line,
				Severity: sev,
				Message:  fmt.Sprintf("%s has cyclomatic complexity %d", u.name, u.complexity),
			})
			suggestions = append(suggestions,
				fmt.Sprintf("Consider refactoring %s (complexity: %d)", u.name, u.complexity))
		}
	}

	avg := 0.0
	if len(units) > 0 {
		avg = float64(total) / float64(len(units))
	}

	return &analysis.Result{
		Score:       100 - avg*5,
		Issues:      issues,
		Suggestions: suggestions,
		Metrics: map[string]any{
			"functions_count":    len(units),
			"total_complexity":   total,
			"average_complexity": avg,
			"lines_of_code":      len(strings.Split(code, "\n")),
		},
	}, nil
}

func fallbackComplexity(code string) *analysis.Result {
	nonBlank := 0
	count := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonBlank++
		lower := strings.ToLower(line)
		for _, kw := range complexityKeywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
	}

	suggestions := []string{}
	if count > complexityIssueThreshold {
		suggestions = append(suggestions,
			fmt.Sprintf("Consider simplifying complex logic (found %d complexity indicators)", count))
	}

	return &analysis.Result{
		Score:       100 - float64(count)*2,
		Issues:      []analysis.Issue{},
		Suggestions: suggestions,
		Metrics: map[string]any{
			"complexity_indicators": count,
			"lines_of_code":         nonBlank,
		},
	}
}
