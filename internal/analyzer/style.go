package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/codepilot/internal/domain/analysis"
)

const fallbackMaxLineLength = 120

// styleCheck is one per-line lint rule for a language with a dedicated
// check set. Every hit is a medium-severity issue.
type styleCheck struct {
	id      string
	message string
	match   func(line string) bool
}

var bareExceptPattern = regexp.MustCompile(`except\s*:`)
var varDeclPattern = regexp.MustCompile(`\bvar\s`)

var pythonStyleChecks = []styleCheck{
	{"line_too_long", "line exceeds 99 characters", func(line string) bool {
		return len(line) > 99
	}},
	{"trailing_whitespace", "trailing whitespace", hasTrailingWhitespace},
	{"bare_except", "bare except clause; catch specific exceptions", func(line string) bool {
		return bareExceptPattern.MatchString(line)
	}},
	{"none_comparison", "comparison to None should use 'is' or 'is not'", func(line string) bool {
		return strings.Contains(line, "== None") || strings.Contains(line, "!= None")
	}},
}

var javascriptStyleChecks = []styleCheck{
	{"var_declaration", "var declaration; prefer let or const", func(line string) bool {
		return varDeclPattern.MatchString(line)
	}},
	{"loose_equality", "loose equality; use === or !==", hasLooseEquality},
	{"trailing_whitespace", "trailing whitespace", hasTrailingWhitespace},
}

func hasTrailingWhitespace(line string) bool {
	return line != strings.TrimRight(line, " \t")
}

func hasLooseEquality(line string) bool {
	cleaned := strings.ReplaceAll(line, "===", "")
	cleaned = strings.ReplaceAll(cleaned, "!==", "")
	return strings.Contains(cleaned, "==") || strings.Contains(cleaned, "!=")
}

func (e *Engine) style(code, lang string) *analysis.Result {
	if checks := capabilityFor(lang).style; checks != nil {
		return scanStyleChecks(code, checks)
	}
	return fallbackStyle(code)
}

func scanStyleChecks(code string, checks []styleCheck) *analysis.Result {
	issues := []analysis.Issue{}
	suggestions := []string{}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		for _, check := range checks {
			if !check.match(line) {
				continue
			}
			issues = append(issues, analysis.Issue{
				Type:     check.id,
				Line:     i + 1,
				Severity: analysis.SeverityMedium,
				Message:  check.message,
			})
			suggestions = append(suggestions, fmt.Sprintf("Line %d: %s", i+1, check.message))
		}
	}

	return &analysis.Result{
		Score:       100 - float64(len(issues))*2,
		Issues:      issues,
		Suggestions: suggestions,
		Metrics: map[string]any{
			"total_issues":   len(issues),
			"lines_analyzed": len(lines),
		},
	}
}

func fallbackStyle(code string) *analysis.Result {
	issues := []analysis.Issue{}
	suggestions := []string{}

	for i, line := range strings.Split(code, "\n") {
		if len(line) <= fallbackMaxLineLength {
			continue
		}
		issues = append(issues, analysis.Issue{
			Type:     "line_too_long",
			Line:     i + 1,
			Severity: analysis.SeverityLow,
			Message:  fmt.Sprintf("line is too long (%d characters)", len(line)),
		})
		suggestions = append(suggestions,
			fmt.Sprintf("Line %d is too long (%d characters)", i+1, len(line)))
	}

	return &analysis.Result{
		Score:       100 - float64(len(issues))*5,
		Issues:      issues,
		Suggestions: suggestions,
		Metrics: map[string]any{
			"style_issues": len(issues),
		},
	}
}
