package analysis

import "errors"

// ErrCodeRequired indicates the caller submitted an empty code payload.
var ErrCodeRequired = errors.New("code is required")
