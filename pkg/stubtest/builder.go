package stubtest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getmockd/stubd/pkg/stub"
)

// Builder builds a stub response using a fluent API.
type Builder struct {
	server         *Server
	resp           *stub.Response
	contentTypeSet bool
	err            error // First error encountered during building
}

// setError records the first error encountered during building.
func (b *Builder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *Builder) Err() error {
	return b.err
}

// WithStatus sets the response status code.
// Default is 200.
func (b *Builder) WithStatus(status int) *Builder {
	b.resp.StatusCode = status
	return b
}

// WithBody sets the response body. Strings and byte slices are used as
// they are; anything else is JSON encoded and, unless WithContentType was
// called, served as application/json.
func (b *Builder) WithBody(body any) *Builder {
	switch v := body.(type) {
	case string:
		b.resp.Body = []byte(v)
	case []byte:
		b.resp.Body = append([]byte(nil), v...)
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets the response body to body encoded as JSON.
func (b *Builder) WithJSON(body any) *Builder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		b.resp.Body = nil
		return b
	}
	b.resp.Body = data
	if !b.contentTypeSet {
		b.resp.ContentType = "application/json"
	}
	return b
}

// WithContentType sets the Content-Type header.
func (b *Builder) WithContentType(contentType string) *Builder {
	b.resp.ContentType = contentType
	b.contentTypeSet = true
	return b
}

// WithHeader adds a response header. Content-Type, Content-Length, Server
// and Connection are managed by the server and are not sent.
func (b *Builder) WithHeader(name, value string) *Builder {
	b.resp.SetHeader(name, value)
	return b
}

// WithHeaders adds several response headers.
func (b *Builder) WithHeaders(headers map[string]string) *Builder {
	for name, value := range headers {
		b.resp.SetHeader(name, value)
	}
	return b
}

// Echo makes PUT and POST requests replace the stored body with their own.
func (b *Builder) Echo() *Builder {
	b.resp.EchoRequestBody = true
	return b
}

// Reply registers the response, replacing any earlier one for the same
// URL. The test fails if building reported an error.
func (b *Builder) Reply() *stub.Response {
	b.server.t.Helper()

	if b.err != nil {
		b.server.t.Fatalf("stub %s: %v", b.resp.URL, b.err)
		return nil
	}
	b.server.srv.Register(b.resp)
	return b.resp.Clone()
}

// RespondWith is a shorthand for setting status and body together.
func (b *Builder) RespondWith(status int, body any) *Builder {
	return b.WithStatus(status).WithBody(body)
}

// RespondNotFound configures a 404 with a JSON error body.
func (b *Builder) RespondNotFound() *Builder {
	return b.WithStatus(http.StatusNotFound).WithJSON(map[string]string{
		"error": "not_found",
	})
}

// RespondNoContent configures a 204 with an empty body.
func (b *Builder) RespondNoContent() *Builder {
	return b.WithStatus(http.StatusNoContent).WithBody("")
}
