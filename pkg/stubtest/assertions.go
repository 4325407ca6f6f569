package stubtest

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/getmockd/stubd/pkg/requestlog"
)

// RequestLog represents a journaled request for assertions.
type RequestLog struct {
	Method string
	URL    string
	// Headers are the request headers (first value per name)
	Headers map[string]string
	// Body is the request body, truncated to 10KB
	Body string
	// Matched reports whether a registered response answered
	Matched bool
	// Status is the status code written, or 0 if the connection failed
	Status int
	// Error describes a connection failure
	Error string
}

func newRequestLog(e *requestlog.Entry) RequestLog {
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return RequestLog{
		Method:  e.Method,
		URL:     e.URL,
		Headers: headers,
		Body:    e.Body,
		Matched: e.Matched,
		Status:  e.ResponseStatus,
		Error:   e.Error,
	}
}

// AssertBody asserts that the request body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertJSONBody asserts that the request body is JSON equal to expected.
// The expected value can be a string, []byte, or any value that will be
// JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		raw = data
	}

	var expectedJSON, actualJSON any
	if err := json.Unmarshal(raw, &expectedJSON); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &actualJSON); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			expectedBytes, actualBytes)
	}
}

// AssertHeader asserts that the request had the specified header with the
// expected value. An exact name match is preferred; otherwise names are
// compared case-insensitively.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual, ok := r.Headers[key]
	if !ok {
		for k, v := range r.Headers {
			if strings.EqualFold(k, key) {
				actual = v
				ok = true
				break
			}
		}
	}

	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertMethod asserts that the request used the expected method.
func (r *RequestLog) AssertMethod(t testing.TB, expected string) {
	t.Helper()

	if r.Method != expected {
		t.Errorf("request method mismatch\nexpected: %q\nactual: %q", expected, r.Method)
	}
}
