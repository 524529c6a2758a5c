package assist

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/codepilot/internal/domain/assist"
)

// fillDemo answers a request from canned templates. Used when no AI client
// is configured or a completion attempt failed.
func (s *Service) fillDemo(resp *domain.Response, req domain.Request) {
	resp.Demo = true
	resp.Confidence = 0.5
	resp.Suggestions = []string{
		"Set OPENAI_API_KEY to enable live AI responses",
	}

	switch req.Task {
	case domain.TaskCodeGeneration:
		resp.OutputCode = demoSnippet(req.Language)
		resp.Explanation = fmt.Sprintf("Demo response for: %s", firstLine(req.Prompt))
	case domain.TaskCodeCompletion:
		resp.OutputCode = req.Code + "\n" + commentLine(req.Language, "completion unavailable in demo mode")
		resp.Explanation = "Demo completion: original code returned unchanged."
	case domain.TaskCodeReview:
		resp.OutputCode = req.Code
		resp.Explanation = "Demo review: see the attached automated analysis suggestions."
	case domain.TaskTestGeneration:
		resp.OutputCode = commentLine(req.Language, "TODO: write tests covering the main paths of the submitted code")
		resp.Explanation = "Demo response: test skeleton only."
	case domain.TaskDocumentation:
		resp.OutputCode = req.Code
		resp.Explanation = "Demo response: documentation generation requires a configured AI client."
	default:
		resp.OutputCode = req.Code
		resp.Explanation = "Demo response."
	}
}

func demoSnippet(language string) string {
	switch strings.ToLower(language) {
	case "python":
		return "def example():\n    \"\"\"Demo-mode placeholder.\"\"\"\n    pass\n"
	case "go":
		return "func example() {\n\t// demo-mode placeholder\n}\n"
	case "javascript", "typescript":
		return "function example() {\n  // demo-mode placeholder\n}\n"
	default:
		return "// demo-mode placeholder\n"
	}
}

func commentLine(language, text string) string {
	if strings.ToLower(language) == "python" {
		return "# " + text
	}
	return "// " + text
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80] + "..."
	}
	return s
}
