// Package processor maps raw upstream customer entries to validated,
// enriched records.
package processor

import (
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/Sternrassler/customer-pipeline/pkg/customer"
)

// Processor converts raw records into validated records. Enrichment fields
// are drawn from its random source, so a Processor is not safe for
// concurrent use.
type Processor struct {
	rng *rand.Rand
}

// Option configures a Processor.
type Option func(*Processor)

// WithRand sets the random source used for enrichment.
func WithRand(rng *rand.Rand) Option {
	return func(p *Processor) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// WithSeed makes enrichment reproducible for the given seed.
func WithSeed(seed int64) Option {
	return func(p *Processor) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Processor. Without options enrichment is seeded from the clock.
func New(opts ...Option) *Processor {
	p := &Processor{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process maps every raw record to a validated record, preserving order.
// It never fails: malformed fields fall back to their defaults.
func (p *Processor) Process(raw []customer.RawRecord) []customer.Record {
	out := make([]customer.Record, 0, len(raw))
	for _, r := range raw {
		out = append(out, p.ProcessRecord(r))
	}
	return out
}

// ProcessRecord maps a single raw record.
func (p *Processor) ProcessRecord(raw customer.RawRecord) customer.Record {
	fullName := strings.TrimSpace(
		stringField(raw, "first_name") + " " + stringField(raw, "last_name"),
	)

	var email *string
	if e := rawString(raw, "email"); e != "" {
		email = &e
	}

	return customer.Record{
		CustomerID:         intField(raw, "id"),
		FullName:           fullName,
		Email:              email,
		EngagementLevel:    pick(p.rng, customer.EngagementLevels),
		ActivityStatus:     pick(p.rng, customer.ActivityStatuses),
		AcquisitionChannel: pick(p.rng, customer.AcquisitionChannels),
		MarketSegment:      pick(p.rng, customer.MarketSegments),
		CustomerTier:       pick(p.rng, customer.Tiers),
		DataQualityScore:   customer.QualityScore(email != nil, fullName != ""),
	}
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.Intn(len(values))]
}

// rawString returns the value verbatim when it is a string.
func rawString(raw customer.RawRecord, key string) string {
	s, _ := raw[key].(string)
	return s
}

// stringField returns the trimmed string value, or "" for missing and
// non-string values.
func stringField(raw customer.RawRecord, key string) string {
	return strings.TrimSpace(rawString(raw, key))
}

// intField returns the integer value of key, or 0 when it is missing or not
// an integer. Non-integral numbers and booleans are not integers.
func intField(raw customer.RawRecord, key string) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return 0
		}
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil || n < math.MinInt || n > math.MaxInt {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}
