package assist

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrPromptRequired indicates the caller submitted no prompt where one is required.
var ErrPromptRequired = errors.New("prompt is required")

// ErrCodeRequired indicates the caller submitted no code where one is required.
var ErrCodeRequired = errors.New("code is required")
