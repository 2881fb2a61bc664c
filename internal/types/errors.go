package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrMissingCredential   = errors.New("enrichment credential is not configured")
	ErrMalformedExtraction = errors.New("malformed extraction response")
	ErrUnsupportedProvider = errors.New("unsupported extraction provider")
	ErrUnknownOperation    = errors.New("unknown GraphQL operation")
	ErrEmptyResponse       = errors.New("empty response body")
)

// FetchError wraps transport failures on a single GraphQL call.
type FetchError struct {
	URL        string
	Operation  string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s %s (status %d): %v", e.Operation, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s %s: %v", e.Operation, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// GraphQLError carries the errors array of an otherwise successful response.
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("graphql error in %s: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// ShapeError records a response that decoded but lacked an expected path.
// Crawlers log it and treat the page as empty.
type ShapeError struct {
	Operation string
	Path      string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response shape for %s: missing %s", e.Operation, e.Path)
}

// StorageError wraps errors that occur during persistence.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StageError wraps errors from a post-fetch pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PartialError reports a resource that was fetched with some holes. The
// value returned alongside it is still usable.
type PartialError struct {
	Resource string
	Err      error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial %s: %v", e.Resource, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
