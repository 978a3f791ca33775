package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/customer-pipeline/pkg/customer"
	"github.com/rs/zerolog"
)

type memorySink struct {
	writes [][]byte
	err    error
}

func (m *memorySink) Write(_ context.Context, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.writes = append(m.writes, data)
	return nil
}

func (m *memorySink) String() string { return "memory" }

func rec(id int, name string, score int) customer.Record {
	return customer.Record{CustomerID: id, FullName: name, DataQualityScore: score}
}

func fixedExporter(sink Sink) *Exporter {
	e := New(sink, zerolog.Nop())
	e.now = func() time.Time {
		return time.Date(2026, 10, 14, 9, 30, 0, 123456000, time.FixedZone("CEST", 2*3600))
	}
	return e
}

func TestBuildBundle_SortedStable(t *testing.T) {
	records := []customer.Record{
		rec(1, "Charlie", 100),
		rec(2, "alice", 90),
		rec(3, "Bob", 80),
		rec(4, "Charlie", 90),
		rec(5, "", 80),
		rec(6, "Bob", 100),
	}

	bundle := fixedExporter(&memorySink{}).BuildBundle(records)

	wantIDs := []int{5, 3, 6, 1, 4, 2}
	for i, r := range bundle.Customers {
		if r.CustomerID != wantIDs[i] {
			t.Errorf("position %d: CustomerID = %d, want %d", i, r.CustomerID, wantIDs[i])
		}
	}

	if records[0].CustomerID != 1 {
		t.Error("BuildBundle must not reorder the input slice")
	}
}

func TestBuildBundle_Metadata(t *testing.T) {
	records := []customer.Record{rec(1, "A", 100), rec(2, "B", 80), rec(3, "C", 60)}

	meta := fixedExporter(&memorySink{}).BuildBundle(records).Metadata

	if meta.TotalCustomers != 3 {
		t.Errorf("TotalCustomers = %d, want 3", meta.TotalCustomers)
	}
	if meta.ExportTimestamp != "2026-10-14T07:30:00.123456Z" {
		t.Errorf("ExportTimestamp = %q, want UTC with trailing Z", meta.ExportTimestamp)
	}
	if want := (QualitySummary{High: 1, Medium: 1, Low: 1}); meta.DataQualitySummary != want {
		t.Errorf("DataQualitySummary = %+v, want %+v", meta.DataQualitySummary, want)
	}
}

func TestExport_Document(t *testing.T) {
	sink := &memorySink{}
	email := "john.doe@example.com"
	records := []customer.Record{
		{CustomerID: 2, FullName: "Jane", DataQualityScore: 90},
		{CustomerID: 1, FullName: "John Doe", Email: &email, DataQualityScore: 100},
	}

	if err := fixedExporter(sink).Export(context.Background(), records); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(sink.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(sink.writes))
	}

	var doc struct {
		Metadata struct {
			TotalCustomers     int            `json:"total_customers"`
			ExportTimestamp    string         `json:"export_timestamp"`
			DataQualitySummary map[string]int `json:"data_quality_summary"`
		} `json:"metadata"`
		Customers []map[string]any `json:"customers"`
	}
	if err := json.Unmarshal(sink.writes[0], &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	if doc.Metadata.TotalCustomers != 2 {
		t.Errorf("total_customers = %d, want 2", doc.Metadata.TotalCustomers)
	}
	if doc.Metadata.DataQualitySummary["high_quality"] != 2 {
		t.Errorf("high_quality = %d, want 2", doc.Metadata.DataQualitySummary["high_quality"])
	}
	if got := doc.Customers[0]["full_name"]; got != "Jane" {
		t.Errorf("first customer = %v, want Jane", got)
	}
	if email, ok := doc.Customers[0]["email"]; !ok || email != nil {
		t.Errorf("Jane email = %v (present %v), want null", email, ok)
	}
	if !strings.Contains(string(sink.writes[0]), "\n    \"metadata\"") {
		t.Error("export should be indented with four spaces")
	}
}

func TestExport_Empty(t *testing.T) {
	sink := &memorySink{}
	if err := fixedExporter(sink).Export(context.Background(), nil); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(string(sink.writes[0]), `"customers": []`) {
		t.Errorf("empty export should contain an empty customers array, got %s", sink.writes[0])
	}
}

func TestExport_SinkError(t *testing.T) {
	sinkErr := errors.New("disk full")
	err := fixedExporter(&memorySink{err: sinkErr}).Export(context.Background(), []customer.Record{rec(1, "A", 100)})

	if !errors.Is(err, sinkErr) {
		t.Errorf("Export() error = %v, want wrapped sink error", err)
	}
}

func TestExport_FileOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	e := fixedExporter(FileSink{Path: path})
	ctx := context.Background()

	if err := e.Export(ctx, []customer.Record{rec(1, "A", 100), rec(2, "B", 100)}); err != nil {
		t.Fatalf("first Export() error = %v", err)
	}
	if err := e.Export(ctx, []customer.Record{rec(3, "C", 80)}); err != nil {
		t.Fatalf("second Export() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if bundle.Metadata.TotalCustomers != 1 || len(bundle.Customers) != 1 {
		t.Errorf("file holds %d customers, want only the second export", len(bundle.Customers))
	}
}

func TestExport_UnwritableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.json")

	err := fixedExporter(FileSink{Path: path}).Export(context.Background(), nil)
	if err == nil {
		t.Fatal("Export() to a missing directory should fail")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   QualitySummary
	}{
		{"empty", nil, QualitySummary{}},
		{"boundaries", []int{90, 89, 70, 69}, QualitySummary{High: 1, Medium: 2, Low: 1}},
		{"current scores", []int{100, 90, 80, 80}, QualitySummary{High: 2, Medium: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]customer.Record, len(tt.scores))
			for i, s := range tt.scores {
				records[i] = rec(i, "", s)
			}
			if got := fixedExporter(&memorySink{}).QualitySummary(records); got != tt.want {
				t.Errorf("QualitySummary() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummaryReport(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   SummaryReport
	}{
		{"empty", nil, SummaryReport{TotalCustomers: 0, AverageQualityScore: 0}},
		{"two records", []int{100, 80}, SummaryReport{TotalCustomers: 2, AverageQualityScore: 90}},
		{"fractional", []int{100, 90, 90}, SummaryReport{TotalCustomers: 3, AverageQualityScore: 280.0 / 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]customer.Record, len(tt.scores))
			for i, s := range tt.scores {
				records[i] = rec(i, "", s)
			}
			if got := fixedExporter(&memorySink{}).SummaryReport(records); got != tt.want {
				t.Errorf("SummaryReport() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
