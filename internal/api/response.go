package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/colthorp/ziskej-cli-go/internal/extract"
)

// Response wraps what a Transport got back. Body is read at most once;
// Bytes and Object cache it.
type Response struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       io.ReadCloser

	data []byte
	read bool
	err  error
}

// NewResponse builds a Response around an in-memory body.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Reason:     http.StatusText(status),
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// Bytes drains and closes the body.
func (r *Response) Bytes() ([]byte, error) {
	if r.read {
		return r.data, r.err
	}
	r.read = true
	if r.Body == nil {
		return nil, nil
	}
	r.data, r.err = io.ReadAll(r.Body)
	r.Body.Close()
	if r.err != nil {
		r.err = fmt.Errorf("read response body: %w", r.err)
	}
	return r.data, r.err
}

// Object decodes the body as a JSON object with numbers kept as json.Number.
// An empty or null body decodes to an empty object. Invalid JSON and any
// other top-level value fail with an error matching extract.ErrParse.
func (r *Response) Object() (extract.Object, error) {
	b, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return extract.Object{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &extract.MalformedError{Err: err}
	}
	switch x := v.(type) {
	case nil:
		return extract.Object{}, nil
	case map[string]any:
		return extract.Object(x), nil
	default:
		return nil, &extract.InvalidTypeError{Field: "(body)", Want: "object", Value: v}
	}
}

// Close releases the body if it was never read.
func (r *Response) Close() error {
	if r.read || r.Body == nil {
		return nil
	}
	r.read = true
	return r.Body.Close()
}

// reasonPhrase strips the status code off an HTTP status line such as
// "404 Not Found", falling back to the standard text.
func reasonPhrase(status string, code int) string {
	if reason, ok := strings.CutPrefix(status, strconv.Itoa(code)+" "); ok && reason != "" {
		return reason
	}
	return http.StatusText(code)
}
