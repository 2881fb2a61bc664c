package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/publicsuffix"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/observability"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// GraphQLClient implements Fetcher against a persisted-query endpoint.
// The client never sends query text, only the operation name and hash.
type GraphQLClient struct {
	client   *http.Client
	cfg      *config.UpstreamConfig
	metrics  *observability.Metrics
	logger   *slog.Logger
	endpoint string
}

// NewGraphQLClient creates a new GraphQL fetcher.
func NewGraphQLClient(cfg *config.UpstreamConfig, metrics *observability.Metrics, logger *slog.Logger) (*GraphQLClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decoded below, including brotli
	}

	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}

	return &GraphQLClient{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   cfg.RequestTimeout,
		},
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With("component", "graphql_client"),
		endpoint: cfg.Endpoint,
	}, nil
}

type persistedQuery struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    struct {
		PersistedQuery struct {
			Version    int    `json:"version"`
			SHA256Hash string `json:"sha256Hash"`
		} `json:"persistedQuery"`
	} `json:"extensions"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query executes a persisted operation.
func (c *GraphQLClient) Query(ctx context.Context, req *Request) (json.RawMessage, error) {
	hash := c.cfg.Hash(req.Operation)
	if hash == "" {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownOperation, req.Operation)
	}

	var pq persistedQuery
	pq.OperationName = req.Operation
	pq.Variables = req.Variables
	pq.Extensions.PersistedQuery.Version = 1
	pq.Extensions.PersistedQuery.SHA256Hash = hash

	payload, err := json.Marshal(pq)
	if err != nil {
		return nil, fmt.Errorf("encode %s variables: %w", req.Operation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &types.FetchError{URL: c.endpoint, Operation: req.Operation, Err: err}
	}
	httpReq.Header = req.Headers.Header()
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.metrics.RequestsTotal.Add(1)
	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		c.metrics.RequestsFailed.Add(1)
		return nil, &types.FetchError{
			URL:       c.endpoint,
			Operation: req.Operation,
			Err:       err,
			Retryable: isRetryableError(err),
		}
	}
	defer httpResp.Body.Close()
	c.metrics.ObserveStatus(httpResp.StatusCode)

	var reader io.Reader = httpResp.Body
	if c.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, c.cfg.MaxBodySize)
	}
	decoded, err := decompressReader(httpResp, reader)
	if err != nil {
		c.metrics.RequestsFailed.Add(1)
		return nil, &types.FetchError{URL: c.endpoint, Operation: req.Operation, Err: err}
	}
	defer decoded.Close()

	body, err := io.ReadAll(decoded)
	if err != nil {
		c.metrics.RequestsFailed.Add(1)
		return nil, &types.FetchError{URL: c.endpoint, Operation: req.Operation, Err: err, Retryable: true}
	}
	c.metrics.BytesDownloaded.Add(int64(len(body)))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.metrics.RequestsFailed.Add(1)
		snippet := body
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, &types.FetchError{
			URL:        c.endpoint,
			Operation:  req.Operation,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet))),
			Retryable:  httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500,
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		c.metrics.RequestsFailed.Add(1)
		return nil, &types.FetchError{URL: c.endpoint, Operation: req.Operation, Err: types.ErrEmptyResponse}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.metrics.RequestsFailed.Add(1)
		return nil, &types.FetchError{URL: c.endpoint, Operation: req.Operation, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(env.Errors) > 0 {
		msgs := make([]string, len(env.Errors))
		for i, e := range env.Errors {
			msgs[i] = e.Message
		}
		gqlErr := &types.GraphQLError{Operation: req.Operation, Messages: msgs}
		if isNull(env.Data) {
			c.metrics.RequestsFailed.Add(1)
			return nil, gqlErr
		}
		// Partial data is still usable; the normalizers tolerate holes.
		c.logger.Warn("partial graphql response", "operation", req.Operation, "error", gqlErr)
	}

	c.logger.Debug("query complete",
		"operation", req.Operation,
		"status", httpResp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)

	return env.Data, nil
}

// Close releases resources.
func (c *GraphQLClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decompressReader wraps a reader with the appropriate decompressor. The
// caller closes the result; closing never closes the response body.
func decompressReader(resp *http.Response, reader io.Reader) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return io.NopCloser(brotli.NewReader(reader)), nil
	default:
		return io.NopCloser(reader), nil
	}
}

// isRetryableError checks if a network error is transient. The crawler does
// not retry; the flag is informational for callers and logs.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}
