package stubtest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/getmockd/stubd/pkg/wire"
)

// Result is a response as it arrived on the wire.
type Result struct {
	// Raw is every byte the server sent.
	Raw []byte

	// StatusCode is zero when the server sent nothing or the status line
	// could not be parsed.
	StatusCode int

	// Header holds the response headers in arrival order.
	Header wire.Header

	Body []byte
}

// BuildRequest formats an HTTP/1.1 request. Header lines are sorted by name
// and a Content-Length is added for a non-empty body unless one is given.
func BuildRequest(method, url string, headers map[string]string, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", method, url)

	names := make([]string, 0, len(headers))
	hasLength := false
	for name := range headers {
		names = append(names, name)
		if strings.EqualFold(name, "Content-Length") {
			hasLength = true
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, headers[name])
	}
	if body != "" && !hasLength {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// ParseResult splits a raw response into status, headers and body. Headers
// are not interpreted: everything after the blank line is the body.
func ParseResult(raw []byte) *Result {
	res := &Result{Raw: raw, Header: wire.Header{}}
	if len(raw) == 0 {
		return res
	}

	r := bufio.NewReader(bytes.NewReader(raw))
	status, err := wire.ReadLine(r)
	if err != nil {
		return res
	}
	if code, ok := strings.CutPrefix(string(status), "HTTP/1.1 "); ok {
		res.StatusCode, _ = strconv.Atoi(code)
	}

	for {
		line, err := wire.ReadLine(r)
		if err != nil {
			return res
		}
		if len(line) == 0 {
			break
		}
		name, value, ok := strings.Cut(string(line), ": ")
		if !ok {
			continue
		}
		res.Header.Add(name, value)
	}

	res.Body, _ = io.ReadAll(r)
	return res
}

// AssertStatus asserts the response status code.
func (r *Result) AssertStatus(t testing.TB, expected int) {
	t.Helper()

	if r.StatusCode != expected {
		t.Errorf("status code mismatch\nexpected: %d\nactual: %d\nraw: %q", expected, r.StatusCode, r.Raw)
	}
}

// AssertBody asserts that the response body exactly matches expected.
func (r *Result) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if string(r.Body) != expected {
		t.Errorf("response body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertHeader asserts that the response carried name with value. Names
// are matched exactly.
func (r *Result) AssertHeader(t testing.TB, name, expected string) {
	t.Helper()

	if !r.Header.Has(name) {
		t.Errorf("response does not have header %q", name)
		return
	}
	if actual := r.Header.Get(name); actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", name, expected, actual)
	}
}

// AssertEmpty asserts that the server sent no bytes at all, which is how it
// answers requests it could not parse.
func (r *Result) AssertEmpty(t testing.TB) {
	t.Helper()

	if len(r.Raw) != 0 {
		t.Errorf("expected no response, got %q", r.Raw)
	}
}
