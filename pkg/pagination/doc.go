// Package pagination walks a page-numbered endpoint from page 1 until the
// upstream signals the end of data.
//
// Example usage:
//
//	records := pagination.Collect(ctx, pagination.FetchFunc[customer.RawRecord](fetch), logger)
//
// The collector:
//   - Fetches pages one at a time, in ascending order
//   - Stops on an empty page, or once the current page reaches total_pages
//   - Treats a missing total_pages as "this is the last page"
//   - Stops on the first fetch error and returns the records gathered so far
//
// Pages are never fetched concurrently, so the flattened result keeps the
// upstream order.
package pagination
