package fetcher

import (
	"context"
	"encoding/json"
)

// Fetcher issues a single persisted GraphQL operation and returns the raw
// "data" member of the response.
type Fetcher interface {
	// Query sends one operation with its variables and per-call headers.
	Query(ctx context.Context, req *Request) (json.RawMessage, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// Request is one GraphQL call.
type Request struct {
	Operation string
	Variables map[string]any
	Headers   Headers
}
