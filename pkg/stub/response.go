// Package stub defines the mock response entity served by the stub engine.
package stub

import "net/http"

// Defaults applied by New.
const (
	DefaultStatusCode  = http.StatusOK
	DefaultContentType = "application/json;charset=utf-8"
	DefaultBody        = "received message"
)

// Response is a canned reply registered for one URL.
type Response struct {
	// URL is the exact request-line URL this response answers.
	URL string

	StatusCode  int
	ContentType string

	// Headers are extra response headers. Setting a name twice keeps the
	// last value.
	Headers map[string]string

	Body []byte

	// EchoRequestBody replaces Body with the body of each PUT or POST that
	// hits this response. The replacement sticks for later requests.
	EchoRequestBody bool
}

// New returns a response for url with the default status, content type and
// placeholder body.
func New(url string) *Response {
	return &Response{
		URL:         url,
		StatusCode:  DefaultStatusCode,
		ContentType: DefaultContentType,
		Headers:     make(map[string]string),
		Body:        []byte(DefaultBody),
	}
}

// Failed returns the response recorded for url when its body source could
// not be resolved: status 500 and no body.
func Failed(url string) *Response {
	r := New(url)
	r.StatusCode = http.StatusInternalServerError
	r.Body = nil
	return r
}

// SetHeader sets a custom response header, overwriting any previous value
// for the same name.
func (r *Response) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
}

// Clone returns a deep copy of r.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	if r.Headers != nil {
		c.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			c.Headers[k] = v
		}
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}
