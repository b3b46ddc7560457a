package api

import "fmt"

// APIResponseError is returned when the service answers with a status the
// operation does not expect.
type APIResponseError struct {
	StatusCode int
	Reason     string
	Body       string
}

func (e *APIResponseError) Error() string {
	return fmt.Sprintf("Ziskej API response error: \"%d %s: %s\"", e.StatusCode, e.Reason, e.Body)
}

// ValidationError is returned when the service rejects a reader, typically
// because the home library is not active in Ziskej.
type ValidationError struct {
	Sigla    string
	Response *APIResponseError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("reader rejected for library %s: %v", e.Sigla, e.Response)
}

func (e *ValidationError) Unwrap() error { return e.Response }

// APIProtocolError is returned when a successful response lacks something
// the protocol guarantees.
type APIProtocolError struct {
	Operation string
	Message   string
}

func (e *APIProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// newResponseError drains resp into an *APIResponseError.
func newResponseError(resp *Response) error {
	apiErr, err := readResponseError(resp)
	if err != nil {
		return err
	}
	return apiErr
}

func readResponseError(resp *Response) (*APIResponseError, error) {
	body, err := resp.Bytes()
	if err != nil {
		return nil, err
	}
	return &APIResponseError{StatusCode: resp.StatusCode, Reason: resp.Reason, Body: string(body)}, nil
}
