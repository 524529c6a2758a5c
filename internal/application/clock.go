package application

import "time"

// SystemClock implementasi default, pakai time.Now(). Every service declares
// its own Clock interface; this satisfies all of them.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
