// Package testutil provides testing utilities for the customer pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for one mock API response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable fake of the paginated users endpoint.
// Each page has a queue of responses; the last one repeats once the queue
// is drained. Unscripted pages answer 200 with an empty data list.
type MockAPI struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[int][]MockResponse

	// Tracking
	RequestCount      int
	PageRequests      map[int]int
	LastRequestHeader http.Header
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		pages:        make(map[int][]MockResponse),
		PageRequests: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server base URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetPage replaces the scripted responses for page.
func (m *MockAPI) SetPage(page int, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = responses
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPageRequests returns how many times page was requested.
func (m *MockAPI) GetPageRequests(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[page]
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockAPI) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

func (m *MockAPI) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/users" {
		http.NotFound(w, r)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.RequestCount++
	m.PageRequests[page]++
	m.LastRequestHeader = r.Header.Clone()

	resp := NewPageResponse(page, 0, nil)
	if queue := m.pages[page]; len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			m.pages[page] = queue[1:]
		}
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewPageResponse creates a 200 OK users page with the given records.
func NewPageResponse(page, totalPages int, records []map[string]any) MockResponse {
	if records == nil {
		records = []map[string]any{}
	}

	body, err := json.Marshal(map[string]any{
		"page":        page,
		"per_page":    len(records),
		"total":       len(records) * totalPages,
		"total_pages": totalPages,
		"data":        records,
	})
	if err != nil {
		panic(fmt.Sprintf("marshal mock page: %v", err))
	}

	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{}`,
	}
}

// Customer builds a raw customer record as served by the API.
func Customer(id int, first, last, email string) map[string]any {
	return map[string]any{
		"id":         id,
		"first_name": first,
		"last_name":  last,
		"email":      email,
	}
}
