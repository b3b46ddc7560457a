package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// MockResponse is one canned reply of a MockTransport.
type MockResponse struct {
	Status int
	Body   string
	Header http.Header
}

// RequestLogEntry records a request made to the transport.
type RequestLogEntry struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Key returns the "METHOD path" form routes are registered under.
func (e RequestLogEntry) Key() string { return e.Method + " " + e.Path }

// MockTransport is an in-memory fake suitable for deterministic unit tests.
// Replies registered for a route are served in order; the last one repeats.
// A request with no registered route fails with a transport error.
type MockTransport struct {
	mu         sync.Mutex
	routes     map[string][]MockResponse
	served     map[string]int
	errs       map[string]error
	RequestLog []RequestLogEntry
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		routes:     make(map[string][]MockResponse),
		served:     make(map[string]int),
		errs:       make(map[string]error),
		RequestLog: make([]RequestLogEntry, 0),
	}
}

// On queues a reply for method and path (query string included).
func (t *MockTransport) On(method, path string, status int, body string) *MockTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := method + " " + path
	t.routes[key] = append(t.routes[key], MockResponse{Status: status, Body: body})
	return t
}

// Fail makes every request to method and path return err.
func (t *MockTransport) Fail(method, path string, err error) *MockTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs[method+" "+path] = err
	return t
}

// Do serves the next queued reply for the request's route.
func (t *MockTransport) Do(_ context.Context, method, path string, header http.Header, body []byte) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Track the call for assertions in unit tests
	t.RequestLog = append(t.RequestLog, RequestLogEntry{
		Method: method,
		Path:   path,
		Header: header.Clone(),
		Body:   copyBody(body),
	})

	key := method + " " + path
	if err, ok := t.errs[key]; ok {
		return nil, err
	}
	replies := t.routes[key]
	if len(replies) == 0 {
		return nil, fmt.Errorf("mock transport: no route for %s", key)
	}
	idx := t.served[key]
	if idx >= len(replies) {
		idx = len(replies) - 1
	}
	t.served[key]++

	reply := replies[idx]
	resp := NewResponse(reply.Status, []byte(reply.Body))
	if reply.Header != nil {
		resp.Header = reply.Header.Clone()
	}
	return resp, nil
}

// RequestsMade returns the number of requests made to this transport.
func (t *MockTransport) RequestsMade() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.RequestLog)
}

// Calls returns how many requests hit method and path.
func (t *MockTransport) Calls(method, path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.RequestLog {
		if e.Method == method && e.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request, or false when there was none.
func (t *MockTransport) Last() (RequestLogEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.RequestLog) == 0 {
		return RequestLogEntry{}, false
	}
	return t.RequestLog[len(t.RequestLog)-1], true
}

// Reset clears routes and recorded requests.
func (t *MockTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = make(map[string][]MockResponse)
	t.served = make(map[string]int)
	t.errs = make(map[string]error)
	t.RequestLog = make([]RequestLogEntry, 0)
}

// copyBody creates a copy of a request body.
func copyBody(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
