// Package api talks to the Ziskej REST service: it builds requests, sends
// them through a Transport and maps responses onto model types.
package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Request describes one API call. Build it with NewRequest and treat it as
// read-only afterwards.
type Request struct {
	Method     string
	Endpoint   string
	PathParams map[string]string
	Query      url.Values
	Body       any
}

// RequestOption customizes a Request.
type RequestOption func(*Request)

// NewRequest returns a request for endpoint, which may hold :name placeholders.
func NewRequest(method, endpoint string, opts ...RequestOption) Request {
	r := Request{
		Method:     method,
		Endpoint:   endpoint,
		PathParams: map[string]string{},
		Query:      url.Values{},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithPathParam substitutes value for the :name placeholder.
func WithPathParam(name, value string) RequestOption {
	return func(r *Request) {
		r.PathParams[":"+strings.TrimPrefix(name, ":")] = value
	}
}

// WithQuery adds a query parameter. Booleans are sent as 1 and 0.
func WithQuery(name string, value any) RequestOption {
	return func(r *Request) {
		r.Query.Add(name, formatScalar(value))
	}
}

// WithBody sets the JSON payload.
func WithBody(body any) RequestOption {
	return func(r *Request) { r.Body = body }
}

// Path renders the request target: placeholders replaced literally, followed
// by the form-encoded query string when there is one. Values are not
// escaped; callers must escape path values holding reserved characters.
func (r Request) Path() string {
	path := r.Endpoint
	if len(r.PathParams) > 0 {
		keys := make([]string, 0, len(r.PathParams))
		for k := range r.PathParams {
			keys = append(keys, k)
		}
		// :ticket_id must win over a hypothetical :ticket.
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
		pairs := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			pairs = append(pairs, k, r.PathParams[k])
		}
		path = strings.NewReplacer(pairs...).Replace(path)
	}
	if len(r.Query) > 0 {
		path += "?" + r.Query.Encode()
	}
	return path
}

// EncodeBody returns the JSON encoding of the payload, or nil when there is none.
func (r Request) EncodeBody() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	b, err := json.Marshal(r.Body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", r.Method, r.Endpoint, err)
	}
	return b, nil
}

func (r Request) String() string {
	return r.Method + " " + r.Path()
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
