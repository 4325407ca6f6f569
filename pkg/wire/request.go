package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Request is a request read off a connection. It lives as long as the
// connection it came from.
type Request struct {
	// Method is the first token of the request line.
	Method string

	// URL is the second token of the request line, verbatim. Query string,
	// trailing slash and case are all significant.
	URL string

	Header Header

	// Body is empty unless Method is PUT or POST and the headers declared a
	// Content-Length or a chunked Transfer-Encoding.
	Body []byte
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	return &Request{
		Method: r.Method,
		URL:    r.URL,
		Header: r.Header.Clone(),
		Body:   append([]byte(nil), r.Body...),
	}
}

// BodyMethod reports whether requests with the given method have their body
// read.
func BodyMethod(method string) bool {
	return method == "PUT" || method == "POST"
}

// ReadRequest reads the request line, the header block and, for PUT and
// POST, the body.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := ReadLine(r)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading request line: %w", err)
	}

	req, err := parseRequestLine(string(line))
	if err != nil {
		return nil, err
	}

	req.Header, err = readHeader(r)
	if err != nil {
		return nil, err
	}

	if !BodyMethod(req.Method) {
		return req, nil
	}

	req.Body, err = ReadBody(r, req.Header)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// parseRequestLine takes the method and URL from the first two tokens.
// Anything after them, such as the protocol version, is ignored.
func parseRequestLine(line string) (*Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrIllegalRequest, line)
	}
	return &Request{Method: fields[0], URL: fields[1]}, nil
}

func readHeader(r *bufio.Reader) (Header, error) {
	h := make(Header)
	for {
		line, err := ReadLine(r)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading header: %w", err)
		}

		text := string(line)
		if strings.TrimSpace(text) == "" {
			return h, nil
		}

		name, value, ok := strings.Cut(text, ": ")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, text)
		}
		h.Add(name, value)

		if err != nil {
			// Stream ended right after a header line.
			return h, nil
		}
	}
}
