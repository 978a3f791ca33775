// Package exporter writes processed customer batches with export metadata
// and computes summary statistics over them.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/customer-pipeline/pkg/customer"
	"github.com/rs/zerolog"
)

// TimestampFormat renders export timestamps in UTC with a trailing Z.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Quality tier thresholds.
const (
	HighQualityThreshold   = 90
	MediumQualityThreshold = 70
)

// QualitySummary counts records per quality tier.
type QualitySummary struct {
	High   int `json:"high_quality"`
	Medium int `json:"medium_quality"`
	Low    int `json:"low_quality"`
}

// Metadata describes an export.
type Metadata struct {
	TotalCustomers     int            `json:"total_customers"`
	ExportTimestamp    string         `json:"export_timestamp"`
	DataQualitySummary QualitySummary `json:"data_quality_summary"`
}

// Bundle is the exported document.
type Bundle struct {
	Metadata  Metadata          `json:"metadata"`
	Customers []customer.Record `json:"customers"`
}

// SummaryReport aggregates a batch.
type SummaryReport struct {
	TotalCustomers      int     `json:"total_customers"`
	AverageQualityScore float64 `json:"average_quality_score"`
}

// Exporter writes batches to a sink.
type Exporter struct {
	sink   Sink
	now    func() time.Time
	logger zerolog.Logger
}

// New creates an Exporter writing to sink.
func New(sink Sink, logger zerolog.Logger) *Exporter {
	return &Exporter{
		sink:   sink,
		now:    time.Now,
		logger: logger.With().Str("component", "exporter").Logger(),
	}
}

// Sink returns the destination the exporter writes to.
func (e *Exporter) Sink() Sink {
	return e.sink
}

// BuildBundle assembles the export document for records. The input slice is
// not modified; customers are stably sorted by full name.
func (e *Exporter) BuildBundle(records []customer.Record) Bundle {
	sorted := slices.Clone(records)
	if sorted == nil {
		sorted = []customer.Record{}
	}
	slices.SortStableFunc(sorted, func(a, b customer.Record) int {
		return strings.Compare(a.FullName, b.FullName)
	})

	return Bundle{
		Metadata: Metadata{
			TotalCustomers:     len(records),
			ExportTimestamp:    e.now().UTC().Format(TimestampFormat),
			DataQualitySummary: Summarize(records),
		},
		Customers: sorted,
	}
}

// Export writes the full bundle for records to the sink, replacing any
// previous export. Sink failures are returned unchanged in meaning.
func (e *Exporter) Export(ctx context.Context, records []customer.Record) error {
	data, err := json.MarshalIndent(e.BuildBundle(records), "", "    ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}

	if err := e.sink.Write(ctx, data); err != nil {
		e.logger.Error().Err(err).Str("output", e.sink.String()).Msg("Export failed")
		return fmt.Errorf("export customers: %w", err)
	}

	e.logger.Info().
		Int("records", len(records)).
		Str("output", e.sink.String()).
		Msg("Exported customers")

	return nil
}

// QualitySummary counts records per quality tier over the batch given.
func (e *Exporter) QualitySummary(records []customer.Record) QualitySummary {
	return Summarize(records)
}

// Summarize counts records per quality tier: high is a score of at least 90,
// medium at least 70, low anything below.
func Summarize(records []customer.Record) QualitySummary {
	var s QualitySummary
	for _, r := range records {
		switch {
		case r.DataQualityScore >= HighQualityThreshold:
			s.High++
		case r.DataQualityScore >= MediumQualityThreshold:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}

// SummaryReport computes and logs the total count and mean quality score.
// An empty batch reports zero for both.
func (e *Exporter) SummaryReport(records []customer.Record) SummaryReport {
	report := Report(records)

	e.logger.Info().
		Int("total_customers", report.TotalCustomers).
		Float64("average_quality_score", report.AverageQualityScore).
		Msg("Summary report")

	return report
}

// Report computes the summary without logging.
func Report(records []customer.Record) SummaryReport {
	if len(records) == 0 {
		return SummaryReport{}
	}

	total := 0
	for _, r := range records {
		total += r.DataQualityScore
	}

	return SummaryReport{
		TotalCustomers:      len(records),
		AverageQualityScore: float64(total) / float64(len(records)),
	}
}
