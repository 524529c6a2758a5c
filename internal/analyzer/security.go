package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/codepilot/internal/domain/analysis"
)

// securityRule is one line-scanned pattern for a language with a dedicated
// rule set. Severity feeds the weighted score.
type securityRule struct {
	id       string
	pattern  *regexp.Regexp
	severity analysis.Severity
	message  string
}

var pythonSecurityRules = []securityRule{
	{"bare_except", regexp.MustCompile(`except\s*:`), analysis.SeverityLow,
		"bare except clause swallows all exceptions"},
	{"eval_call", regexp.MustCompile(`\beval\s*\(`), analysis.SeverityMedium,
		"use of eval() allows arbitrary code execution"},
	{"exec_call", regexp.MustCompile(`\bexec\s*\(`), analysis.SeverityMedium,
		"use of exec() allows arbitrary code execution"},
	{"os_system", regexp.MustCompile(`os\.system\s*\(`), analysis.SeverityHigh,
		"shell command execution via os.system"},
	{"subprocess_shell", regexp.MustCompile(`shell\s*=\s*True`), analysis.SeverityHigh,
		"subprocess invoked with shell=True"},
	{"pickle_load", regexp.MustCompile(`pickle\.loads?\s*\(`), analysis.SeverityMedium,
		"unpickling untrusted data can execute code"},
	{"yaml_load", regexp.MustCompile(`yaml\.load\s*\(`), analysis.SeverityMedium,
		"yaml.load without SafeLoader can instantiate arbitrary objects"},
	{"hardcoded_password", regexp.MustCompile(`(?i)password\s*=\s*["']`), analysis.SeverityLow,
		"possible hardcoded password"},
}

var javascriptSecurityRules = []securityRule{
	{"eval_call", regexp.MustCompile(`\beval\s*\(`), analysis.SeverityHigh,
		"use of eval() allows arbitrary code execution"},
	{"function_constructor", regexp.MustCompile(`new\s+Function\s*\(`), analysis.SeverityMedium,
		"Function constructor evaluates strings as code"},
	{"inner_html", regexp.MustCompile(`\.innerHTML\s*=`), analysis.SeverityMedium,
		"assignment to innerHTML is a DOM-based XSS sink"},
	{"document_write", regexp.MustCompile(`document\.write\s*\(`), analysis.SeverityMedium,
		"document.write with dynamic input is an XSS sink"},
	{"child_process", regexp.MustCompile(`child_process`), analysis.SeverityHigh,
		"shell execution via child_process"},
}

// fallbackSecurityPatterns are the four fixed pattern families scanned
// case-insensitively over the raw text when no rule set exists for the
// language. One medium issue per matched pattern.
var fallbackSecurityPatterns = []struct {
	family   string
	patterns []string
}{
	{"sql_injection", []string{"SELECT", "INSERT", "UPDATE", "DELETE"}},
	{"xss", []string{"innerHTML", "document.write", "eval"}},
	{"hardcoded_secrets", []string{"password", "api_key", "secret", "token"}},
	{"unsafe_functions", []string{"exec", "system", "shell_exec"}},
}

func (e *Engine) security(code, lang string) *analysis.Result {
	if rules := capabilityFor(lang).security; rules != nil {
		return scanSecurityRules(code, rules)
	}
	return fallbackSecurity(code)
}

func scanSecurityRules(code string, rules []securityRule) *analysis.Result {
	issues := []analysis.Issue{}
	suggestions := []string{}
	var high, medium, low int

	for i, line := range strings.Split(code, "\n") {
		for _, rule := range rules {
			if !rule.pattern.MatchString(line) {
				continue
			}
			issues = append(issues, analysis.Issue{
				Type:     rule.id,
				Line:     i + 1,
				Severity: rule.severity,
				Message:  rule.message,
			})
			suggestions = append(suggestions, fmt.Sprintf("Line %d: %s", i+1, rule.message))
			switch rule.severity {
			case analysis.SeverityHigh:
				high++
			case analysis.SeverityMedium:
				medium++
			default:
				low++
			}
		}
	}

	return &analysis.Result{
		Score:       100 - float64(high*20+medium*10+low*5),
		Issues:      issues,
		Suggestions: suggestions,
		Metrics: map[string]any{
			"total_issues":    len(issues),
			"high_severity":   high,
			"medium_severity": medium,
			"low_severity":    low,
			"lines_analyzed":  len(strings.Split(code, "\n")),
		},
	}
}

func fallbackSecurity(code string) *analysis.Result {
	lower := strings.ToLower(code)
	issues := []analysis.Issue{}
	suggestions := []string{}

	for _, family := range fallbackSecurityPatterns {
		for _, pattern := range family.patterns {
			if !strings.Contains(lower, strings.ToLower(pattern)) {
				continue
			}
			readable := strings.ReplaceAll(family.family, "_", " ")
			issues = append(issues, analysis.Issue{
				Type:     family.family,
				Severity: analysis.SeverityMedium,
				Message:  fmt.Sprintf("potential %s risk with '%s'", readable, pattern),
			})
			suggestions = append(suggestions,
				fmt.Sprintf("Potential %s risk with '%s'", readable, pattern))
		}
	}

	return &analysis.Result{
		Score:       100 - float64(len(issues))*10,
		Issues:      issues,
		Suggestions: suggestions,
		Metrics: map[string]any{
			"potential_issues": len(issues),
		},
	}
}
