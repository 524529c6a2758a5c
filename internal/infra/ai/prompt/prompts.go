package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/codepilot/internal/domain/assist"
)

// SystemPrompt provides strict directions and schema for JSON output,
// specialized per task.
func SystemPrompt(task assist.TaskType) string {
	role := "You are an expert software engineer and code assistant."
	switch task {
	case assist.TaskCodeReview:
		role = "You are a senior code reviewer focused on correctness, security and maintainability."
	case assist.TaskTestGeneration:
		role = "You are an expert in automated testing and test design."
	case assist.TaskDocumentation:
		role = "You are a technical writer who documents code precisely and concisely."
	}

	return role + ` You must produce one valid JSON object only (no markdown, no commentary, no code fences) following this schema:

{
  "code": "<the generated or revised code as a string>",
  "explanation": "<short explanation of what the code does or what was found>",
  "confidence": <number between 0 and 1>,
  "suggestions": ["<short follow-up suggestion>", "..."]
}

Requirements:
- Output must be a single JSON object.
- "code" must contain only source code, no surrounding prose.
- Keep "suggestions" to at most five concise items.`
}

// UserPrompt builds the user message for one assistance request.
func UserPrompt(req assist.Request) string {
	var b strings.Builder

	switch req.Task {
	case assist.TaskCodeGeneration:
		fmt.Fprintf(&b, "Generate %s code for the following request:\n%s\n", req.Language, req.Prompt)
	case assist.TaskCodeCompletion:
		fmt.Fprintf(&b, "Complete the following %s code. Return the full completed code in the \"code\" field.\n\n%s\n", req.Language, req.Code)
		if req.Prompt != "" {
			fmt.Fprintf(&b, "\nCompletion intent: %s\n", req.Prompt)
		}
	case assist.TaskCodeReview:
		fmt.Fprintf(&b, "Review the following %s code. Put an improved version in the \"code\" field and the review findings in \"explanation\" and \"suggestions\".\n\n%s\n", req.Language, req.Code)
	case assist.TaskTestGeneration:
		fmt.Fprintf(&b, "Write unit tests for the following %s code. Return only the test code in the \"code\" field.\n\n%s\n", req.Language, req.Code)
	case assist.TaskDocumentation:
		fmt.Fprintf(&b, "Document the following %s code: add doc comments and produce a short usage summary in \"explanation\".\n\n%s\n", req.Language, req.Code)
	default:
		fmt.Fprintf(&b, "%s\n\n%s\n", req.Prompt, req.Code)
	}

	if req.Context != "" {
		fmt.Fprintf(&b, "\nAdditional context:\n%s\n", req.Context)
	}
	return b.String()
}
