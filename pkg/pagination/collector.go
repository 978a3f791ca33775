package pagination

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Page is one unit of a paginated response.
type Page[T any] struct {
	// Data holds the items of this page in upstream order.
	Data []T

	// TotalPages is the page count reported by the upstream, nil if absent.
	TotalPages *int
}

// PageFetcher fetches a single page by its 1-based number.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (Page[T], error)
}

// FetchFunc adapts a function to the PageFetcher interface.
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// FetchPage calls f.
func (f FetchFunc[T]) FetchPage(ctx context.Context, page int) (Page[T], error) {
	return f(ctx, page)
}

// Collect fetches pages starting at 1 and returns all items in page order.
// A fetch error ends the walk: it is logged and the items gathered so far
// are returned, so the result may be a prefix of the full data set.
func Collect[T any](ctx context.Context, fetcher PageFetcher[T], logger zerolog.Logger) []T {
	start := time.Now()
	all := make([]T, 0)

	fetched := 0
	for page := 1; ; page++ {
		p, err := fetcher.FetchPage(ctx, page)
		if err != nil {
			logger.Error().
				Err(err).
				Int("page", page).
				Int("records", len(all)).
				Msg("Failed to fetch page - returning partial results")
			break
		}

		if len(p.Data) == 0 {
			logger.Debug().Int("page", page).Msg("Empty page - end of data")
			break
		}

		all = append(all, p.Data...)
		fetched++

		if page >= lastPage(p, page) {
			break
		}
	}

	logger.Info().
		Int("pages", fetched).
		Int("records", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all
}

// lastPage returns the reported page count, or current when none is reported.
func lastPage[T any](p Page[T], current int) int {
	if p.TotalPages == nil {
		return current
	}
	return *p.TotalPages
}
