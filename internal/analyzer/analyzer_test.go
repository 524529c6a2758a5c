package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/domain/analysis"
)

func newTestEngine() *Engine {
	return New(zap.NewNop())
}

func TestScoreNeverNegative(t *testing.T) {
	e := newTestEngine()
	// Text matching all 14 fallback security patterns: the raw score
	// would be -40 without clamping.
	code := "SELECT INSERT UPDATE DELETE innerHTML document.write eval password api_key secret token exec system shell_exec"

	res := e.Analyze(context.Background(), code, "rust", analysis.KindSecurity)
	assert.Equal(t, 0.0, res.Score)
	assert.Len(t, res.Issues, 14)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	e := newTestEngine()
	code := "if (a == b) { var x = eval(input); }\n"

	for _, kind := range analysis.Kinds {
		first := e.Analyze(context.Background(), code, "javascript", kind)
		second := e.Analyze(context.Background(), code, "javascript", kind)
		assert.Equal(t, first.Score, second.Score, "kind %s", kind)
		assert.Equal(t, first.Issues, second.Issues, "kind %s", kind)
		assert.Equal(t, first.Suggestions, second.Suggestions, "kind %s", kind)
	}
}

func TestPythonBareExceptFlagged(t *testing.T) {
	e := newTestEngine()
	code := "try:\n    x = int(input())\nexcept:\n    pass"

	sec := e.Analyze(context.Background(), code, "python", analysis.KindSecurity)
	require.NotEmpty(t, sec.Issues)
	found := false
	for _, issue := range sec.Issues {
		if issue.Type == "bare_except" {
			found = true
			assert.Equal(t, 3, issue.Line)
		}
	}
	assert.True(t, found, "security analysis should flag the bare except handler")

	style := e.Analyze(context.Background(), code, "python", analysis.KindStyle)
	found = false
	for _, issue := range style.Issues {
		if issue.Type == "bare_except" {
			found = true
		}
	}
	assert.True(t, found, "style analysis should flag the bare except handler")
}

func TestFallbackStyleLongLine(t *testing.T) {
	e := newTestEngine()
	code := "short line\n" + strings.Repeat("x", 130) + "\nanother short line"

	res := e.Analyze(context.Background(), code, "rust", analysis.KindStyle)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 95.0, res.Score)
	assert.Equal(t, "line_too_long", res.Issues[0].Type)
	assert.Equal(t, 2, res.Issues[0].Line)
	assert.Equal(t, analysis.SeverityLow, res.Issues[0].Severity)
}

func TestFallbackComplexitySuggestionThreshold(t *testing.T) {
	e := newTestEngine()

	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "if cond%d then\n", i)
	}
	res := e.Analyze(context.Background(), b.String(), "ruby", analysis.KindComplexity)
	assert.Equal(t, 76.0, res.Score)
	require.Len(t, res.Suggestions, 1)
	assert.Contains(t, res.Suggestions[0], "12 complexity indicators")

	// At or below the threshold no suggestion is emitted.
	res = e.Analyze(context.Background(), "if a then\nif b then\n", "ruby", analysis.KindComplexity)
	assert.Empty(t, res.Suggestions)
}

func TestStructuralComplexityFlagsDenseFunction(t *testing.T) {
	e := newTestEngine()

	var b strings.Builder
	b.WriteString("def dense(v):\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "    if v > %d:\n        v -= 1\n", i)
	}
	b.WriteString("    return v\n")

	res := e.Analyze(context.Background(), b.String(), "python", analysis.KindComplexity)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "high_complexity", res.Issues[0].Type)
	assert.Equal(t, analysis.SeverityMedium, res.Issues[0].Severity)
	assert.Equal(t, 12, res.Metrics["total_complexity"])
	assert.Equal(t, 40.0, res.Score)
	require.Len(t, res.Suggestions, 1)
	assert.Contains(t, res.Suggestions[0], "dense")
}

func TestStructuralComplexityHighSeverity(t *testing.T) {
	e := newTestEngine()

	var b strings.Builder
	b.WriteString("def tangled(v):\n")
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&b, "    if v > %d:\n        v -= 1\n", i)
	}
	b.WriteString("    return v\n")

	res := e.Analyze(context.Background(), b.String(), "python", analysis.KindComplexity)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, analysis.SeverityHigh, res.Issues[0].Severity)
	assert.Equal(t, 20.0, res.Score)
}

func TestStructuralFallsBackOnSyntaxError(t *testing.T) {
	e := newTestEngine()
	code := "def broken(:\n    if while for"

	// Must not panic or error; the keyword fallback takes over.
	res := e.Analyze(context.Background(), code, "python", analysis.KindComplexity)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 100.0)
	assert.Contains(t, res.Metrics, "complexity_indicators")
}

func TestJavascriptSecurityRules(t *testing.T) {
	e := newTestEngine()
	code := "element.innerHTML = userInput;\neval(payload);\n"

	res := e.Analyze(context.Background(), code, "javascript", analysis.KindSecurity)
	require.Len(t, res.Issues, 2)
	assert.Equal(t, "inner_html", res.Issues[0].Type)
	assert.Equal(t, 1, res.Issues[0].Line)
	assert.Equal(t, "eval_call", res.Issues[1].Type)
	// one high (eval) + one medium (innerHTML): 100 - 20 - 10
	assert.Equal(t, 70.0, res.Score)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Python":     "python",
		"py":         "python",
		"golang":     "go",
		"JS":         "javascript",
		"c++":        "cpp",
		"":           "plaintext",
		"  Ruby  ":   "ruby",
		"typescript": "typescript",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, "python", Detect("main.py", []byte("import os\n")))
	assert.Equal(t, "go", Detect("main.go", []byte("package main\n")))
	assert.Equal(t, "plaintext", Detect("", nil))
}
