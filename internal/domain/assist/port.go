package assist

import "context"

// Client port (interface untuk LLM provider)
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Repository port: append-only store for assistant responses.
type Repository interface {
	Append(ctx context.Context, r *Response) (string, error)
}
