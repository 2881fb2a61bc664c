package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for a crawl run.
type Metrics struct {
	// Transport
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	Responses2xx    atomic.Int64
	Responses4xx    atomic.Int64
	Responses5xx    atomic.Int64
	BytesDownloaded atomic.Int64

	// Pagination
	PagesFetched       atomic.Int64
	RepliesExpanded    atomic.Int64
	ExpansionSoftStops atomic.Int64
	ExpansionFailures  atomic.Int64

	// Enrichment
	EnrichBatches       atomic.Int64
	EnrichBatchesFailed atomic.Int64

	// Products
	ProductsOK     atomic.Int64
	ProductsFailed atomic.Int64
	RecordsStored  atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ObserveStatus buckets an HTTP status code.
func (m *Metrics) ObserveStatus(code int) {
	if m == nil {
		return
	}
	switch {
	case code >= 500:
		m.Responses5xx.Add(1)
	case code >= 400:
		m.Responses4xx.Add(1)
	case code >= 200 && code < 300:
		m.Responses2xx.Add(1)
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"huntgoat_requests_total", "Total GraphQL requests made", m.RequestsTotal.Load()},
		{"huntgoat_requests_failed_total", "Total failed GraphQL requests", m.RequestsFailed.Load()},
		{"huntgoat_responses_2xx_total", "Total 2xx responses", m.Responses2xx.Load()},
		{"huntgoat_responses_4xx_total", "Total 4xx responses", m.Responses4xx.Load()},
		{"huntgoat_responses_5xx_total", "Total 5xx responses", m.Responses5xx.Load()},
		{"huntgoat_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
		{"huntgoat_pages_fetched_total", "Total pages accumulated by the paginator", m.PagesFetched.Load()},
		{"huntgoat_replies_expanded_total", "Total replies added by reply expansion", m.RepliesExpanded.Load()},
		{"huntgoat_expansion_soft_stops_total", "Reply expansions stopped at the attempt bound", m.ExpansionSoftStops.Load()},
		{"huntgoat_expansion_failures_total", "Reply expansions interrupted by a fetch error", m.ExpansionFailures.Load()},
		{"huntgoat_enrich_batches_total", "Enrichment batches sent", m.EnrichBatches.Load()},
		{"huntgoat_enrich_batches_failed_total", "Enrichment batches that failed", m.EnrichBatchesFailed.Load()},
		{"huntgoat_products_ok_total", "Products crawled to completion", m.ProductsOK.Load()},
		{"huntgoat_products_failed_total", "Products that failed", m.ProductsFailed.Load()},
		{"huntgoat_records_stored_total", "Records handed to storage", m.RecordsStored.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":       m.RequestsTotal.Load(),
		"requests_failed":      m.RequestsFailed.Load(),
		"responses_2xx":        m.Responses2xx.Load(),
		"responses_4xx":        m.Responses4xx.Load(),
		"responses_5xx":        m.Responses5xx.Load(),
		"bytes_downloaded":     m.BytesDownloaded.Load(),
		"pages_fetched":        m.PagesFetched.Load(),
		"replies_expanded":     m.RepliesExpanded.Load(),
		"expansion_soft_stops": m.ExpansionSoftStops.Load(),
		"expansion_failures":   m.ExpansionFailures.Load(),
		"enrich_batches":       m.EnrichBatches.Load(),
		"enrich_failed":        m.EnrichBatchesFailed.Load(),
		"products_ok":          m.ProductsOK.Load(),
		"products_failed":      m.ProductsFailed.Load(),
		"records_stored":       m.RecordsStored.Load(),
	}
}
