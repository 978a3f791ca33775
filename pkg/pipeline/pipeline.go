// Package pipeline runs one fetch → process → export pass over the
// customer API.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/customer-pipeline/pkg/customer"
	"github.com/Sternrassler/customer-pipeline/pkg/exporter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	pipelineRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "customer_pipeline_records",
		Help: "Records handled by the last run, by stage",
	}, []string{"stage"})

	pipelineAverageQuality = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "customer_pipeline_average_quality_score",
		Help: "Average data quality score of the last exported batch",
	})

	pipelineLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "customer_pipeline_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})
)

// Fetcher returns every raw record the upstream serves.
type Fetcher interface {
	FetchAll(ctx context.Context) []customer.RawRecord
}

// Processor maps raw records to validated records.
type Processor interface {
	Process(raw []customer.RawRecord) []customer.Record
}

// Exporter writes a batch and reports on it.
type Exporter interface {
	Export(ctx context.Context, records []customer.Record) error
	SummaryReport(records []customer.Record) exporter.SummaryReport
}

// Config wires the stages of a run.
type Config struct {
	Fetcher   Fetcher
	Processor Processor
	Exporter  Exporter
	Logger    zerolog.Logger
}

// Run executes the stages in order. Fetch failures only shorten the batch;
// an export failure aborts the run and is returned.
func Run(ctx context.Context, cfg Config) (exporter.SummaryReport, error) {
	logger := cfg.Logger.With().Str("component", "pipeline").Logger()
	start := time.Now()

	raw := cfg.Fetcher.FetchAll(ctx)
	pipelineRecords.WithLabelValues("fetched").Set(float64(len(raw)))
	logger.Info().Int("records", len(raw)).Msg("Fetched raw customers")

	records := cfg.Processor.Process(raw)
	pipelineRecords.WithLabelValues("processed").Set(float64(len(records)))
	logger.Debug().Int("records", len(records)).Msg("Processed customers")

	if err := cfg.Exporter.Export(ctx, records); err != nil {
		return exporter.SummaryReport{}, fmt.Errorf("pipeline: %w", err)
	}
	pipelineRecords.WithLabelValues("exported").Set(float64(len(records)))

	report := cfg.Exporter.SummaryReport(records)
	pipelineAverageQuality.Set(report.AverageQualityScore)
	pipelineLastSuccess.SetToCurrentTime()

	logger.Info().
		Int("records", report.TotalCustomers).
		Dur("duration", time.Since(start)).
		Msg("Pipeline complete")

	return report, nil
}
