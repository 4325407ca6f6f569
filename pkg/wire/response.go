package wire

import (
	"bufio"
	"strconv"
)

var crlf = []byte("\r\n")

// HeaderField is one response header line.
type HeaderField struct {
	Name  string
	Value string
}

// Response is a response ready for serialization. Header is already in the
// order it goes on the wire.
type Response struct {
	StatusCode int
	Header     []HeaderField
	Body       []byte
}

// Get returns the value of the first field named name, or "".
func (r *Response) Get(name string) string {
	for _, f := range r.Header {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// WriteResponse serializes resp onto w and flushes it: the status line
// without a reason phrase, one line per header field, a blank line and the
// raw body bytes.
func WriteResponse(w *bufio.Writer, resp *Response) error {
	_, _ = w.WriteString("HTTP/1.1 ")
	_, _ = w.WriteString(strconv.Itoa(resp.StatusCode))
	_, _ = w.Write(crlf)

	for _, f := range resp.Header {
		_, _ = w.WriteString(f.Name)
		_, _ = w.WriteString(": ")
		_, _ = w.WriteString(f.Value)
		_, _ = w.Write(crlf)
	}
	_, _ = w.Write(crlf)

	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
	// bufio.Writer keeps the first write error and reports it here.
	return w.Flush()
}
