// Package metrics provides the Prometheus registry used by the pipeline.
// All metrics are defined in their respective packages (client, cache,
// pipeline) to maintain modularity and avoid circular dependencies.
//
// The pipeline is a batch job, so metrics are not scraped from a server:
// WriteTextfile dumps them once per run for the node exporter textfile
// collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source WriteTextfile reads from.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every registered metric to path in the text
// exposition format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - customer_api_requests_total{status} (Counter): Requests by HTTP status (or network_error)
//   - customer_api_request_duration_seconds (Histogram): Request duration
//   - customer_api_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//   - customer_pages_fetched_total{source} (Counter): Pages fetched from the api or the cache
//
// Retry Metrics (pkg/client):
//   - customer_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - customer_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - customer_api_retry_exhausted_total{error_class} (Counter): Pages that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - customer_page_cache_hits_total (Counter): Cache hits
//   - customer_page_cache_misses_total (Counter): Cache misses
//   - customer_page_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pipeline Metrics (pkg/pipeline):
//   - customer_pipeline_records{stage} (Gauge): Records after fetched, processed and exported
//   - customer_pipeline_average_quality_score (Gauge): Mean quality score of the last run
//   - customer_pipeline_last_success_timestamp_seconds (Gauge): Completion time of the last successful run
//
// Example Prometheus Queries:
//
//   # Partial fetches (records lost to a failing page)
//   customer_api_retry_exhausted_total > 0
//
//   # Retry rate by class
//   rate(customer_api_retries_total[1h])
//
//   # Stale pipeline
//   time() - customer_pipeline_last_success_timestamp_seconds > 86400
