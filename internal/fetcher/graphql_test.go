package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestClient(t *testing.T, handler http.HandlerFunc) *GraphQLClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Upstream
	cfg.Endpoint = srv.URL
	client, err := NewGraphQLClient(&cfg, nil, testLogger)
	require.NoError(t, err)
	return client
}

func TestQuerySendsPersistedQuery(t *testing.T) {
	var got persistedQuery
	var referer, phReferer string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("Referer")
		phReferer = r.Header.Get("X-Ph-Referer")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"ok":true}}`))
	})

	base := BaseHeaders("https://www.producthunt.com", "test-agent")
	data, err := client.Query(context.Background(), &Request{
		Operation: config.OpProductReviews,
		Variables: map[string]any{"slug": "notion"},
		Headers:   base.WithReferer("https://www.producthunt.com/products/notion/reviews").WithPHReferer("notion"),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, config.OpProductReviews, got.OperationName)
	assert.Equal(t, "notion", got.Variables["slug"])
	assert.Equal(t, 1, got.Extensions.PersistedQuery.Version)
	assert.Equal(t, config.DefaultOperations()[config.OpProductReviews], got.Extensions.PersistedQuery.SHA256Hash)
	assert.Equal(t, "https://www.producthunt.com/products/notion/reviews", referer)
	assert.Equal(t, "notion", phReferer)

	// The template itself is untouched by per-call rewrites.
	assert.Equal(t, "https://www.producthunt.com/", base.Get("Referer"))
	assert.Empty(t, base.Get("X-Ph-Referer"))
}

func TestQueryDecodesBrotli(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write([]byte(`{"data":{"value":42}}`))
		bw.Close()
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	})

	data, err := client.Query(context.Background(), &Request{Operation: config.OpProductDetails})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":42}`, string(data))
}

func TestQueryDecodesGzip(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		gw.Write([]byte(`{"data":{"value":7}}`))
		gw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	})

	data, err := client.Query(context.Background(), &Request{Operation: config.OpProductDetails})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":7}`, string(data))
}

func TestDecompressReader(t *testing.T) {
	payload := []byte(`{"data":{}}`)
	encode := map[string]func() []byte{
		"": func() []byte { return payload },
		"gzip": func() []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			w.Write(payload)
			w.Close()
			return buf.Bytes()
		},
		"deflate": func() []byte {
			var buf bytes.Buffer
			w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
			w.Write(payload)
			w.Close()
			return buf.Bytes()
		},
		"br": func() []byte {
			var buf bytes.Buffer
			w := brotli.NewWriter(&buf)
			w.Write(payload)
			w.Close()
			return buf.Bytes()
		},
	}

	for encoding, body := range encode {
		t.Run("encoding="+encoding, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if encoding != "" {
				resp.Header.Set("Content-Encoding", encoding)
			}
			rc, err := decompressReader(resp, bytes.NewReader(body()))
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			assert.NoError(t, rc.Close())
		})
	}

	t.Run("corrupt gzip", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Content-Encoding": {"gzip"}}}
		_, err := decompressReader(resp, bytes.NewReader([]byte("not gzip")))
		assert.Error(t, err)
	})
}

func TestQueryErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("slow down"))
		})
		_, err := client.Query(context.Background(), &Request{Operation: config.OpProductDetails})
		var fe *types.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
		assert.True(t, fe.IsRetryable())
	})

	t.Run("malformed json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		})
		_, err := client.Query(context.Background(), &Request{Operation: config.OpProductDetails})
		var fe *types.FetchError
		require.ErrorAs(t, err, &fe)
	})

	t.Run("graphql errors without data", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":null,"errors":[{"message":"PersistedQueryNotFound"}]}`))
		})
		_, err := client.Query(context.Background(), &Request{Operation: config.OpProductDetails})
		var ge *types.GraphQLError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, []string{"PersistedQueryNotFound"}, ge.Messages)
	})

	t.Run("partial data is returned", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"product":null},"errors":[{"message":"not found"}]}`))
		})
		data, err := client.Query(context.Background(), &Request{Operation: config.OpProductDetails})
		require.NoError(t, err)
		assert.JSONEq(t, `{"product":null}`, string(data))
	})

	t.Run("unknown operation", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, err := client.Query(context.Background(), &Request{Operation: "Nope"})
		assert.True(t, errors.Is(err, types.ErrUnknownOperation))
	})
}
