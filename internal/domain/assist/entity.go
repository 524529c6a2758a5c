package assist

import "time"

// TaskType enum
type TaskType string

const (
	TaskCodeGeneration TaskType = "code_generation"
	TaskCodeCompletion TaskType = "code_completion"
	TaskCodeReview     TaskType = "code_review"
	TaskTestGeneration TaskType = "test_generation"
	TaskDocumentation  TaskType = "documentation"
)

// Request is one assistance call from a client.
type Request struct {
	Task     TaskType
	Language string
	Prompt   string
	Code     string
	Context  string
}

// Response is the assistant's answer, persisted append-only.
type Response struct {
	ID           string    `json:"id"`
	Task         TaskType  `json:"task_type"`
	Language     string    `json:"language"`
	InputCode    string    `json:"input_code,omitempty"`
	OutputCode   string    `json:"output_code"`
	Explanation  string    `json:"explanation"`
	Confidence   float64   `json:"confidence"`
	Suggestions  []string  `json:"suggestions"`
	ProcessingMS int64     `json:"processing_ms"`
	Demo         bool      `json:"demo"`
	CreatedAt    time.Time `json:"timestamp"`
}
