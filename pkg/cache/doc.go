// Package cache provides an optional Redis-backed cache for upstream page
// responses.
//
// The cache manager implements the following features:
//
// - Page bodies stored under deterministic keys (endpoint + sorted query)
// - TTL taken from the response Expires header, with a configurable fallback
// - Automatic removal by Redis once the TTL elapses
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient, 5*time.Minute)
//
//	// Create cache key
//	key := cache.CacheKey{
//		Endpoint:    "/users",
//		QueryParams: url.Values{"page": []string{"2"}},
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from the API
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - customer_page_cache_hits_total - Cache hits
//   - customer_page_cache_misses_total - Cache misses
//   - customer_page_cache_errors_total{operation} - Cache operation errors
//
// The cache is a response cache only. It does not record pagination
// progress, so an interrupted run starts again from page 1.
package cache
