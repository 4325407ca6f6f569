package requestlog

import "time"

// maxBodySize is the number of request or response body bytes kept per entry.
const maxBodySize = 10 * 1024

// Entry records one served connection.
type Entry struct {
	// ID is a unique identifier for the entry.
	ID string `json:"id"`

	// Timestamp is when the connection was accepted.
	Timestamp time.Time `json:"timestamp"`

	Method string `json:"method"`
	URL    string `json:"url"`

	// Headers are the request headers exactly as received.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body, truncated to 10KB.
	Body string `json:"body,omitempty"`

	// BodySize is the untruncated request body size in bytes.
	BodySize int `json:"bodySize"`

	RemoteAddr string `json:"remoteAddr"`

	// Matched reports whether a registered response answered the request.
	Matched bool `json:"matched"`

	ResponseStatus int `json:"responseStatus"`

	// ResponseBody is the body that was written, truncated to 10KB.
	ResponseBody string `json:"responseBody,omitempty"`

	DurationMs int `json:"durationMs"`

	// Error is set when the connection failed before a response was written.
	Error string `json:"error,omitempty"`
}

// TruncateBody returns b as a string cut to the journal's per-entry limit.
func TruncateBody(b []byte) string {
	if len(b) > maxBodySize {
		return string(b[:maxBodySize])
	}
	return string(b)
}
