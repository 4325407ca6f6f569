package wire

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRequest(t *testing.T, raw string) (*Request, error) {
	t.Helper()
	return ReadRequest(bufio.NewReader(strings.NewReader(raw)))
}

func TestReadRequest_GET(t *testing.T) {
	t.Parallel()

	req, err := readRequest(t, "GET /api/users?id=1 HTTP/1.1\r\nHost: localhost\r\nAccept: */*\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/api/users?id=1", req.URL)
	assert.Equal(t, "localhost", req.Header.Get("Host"))
	assert.Equal(t, "*/*", req.Header.Get("Accept"))
	assert.Empty(t, req.Body)
}

func TestReadRequest_RequestLine(t *testing.T) {
	t.Parallel()

	t.Run("extra tokens are ignored", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "DELETE /x HTTP/1.1 trailing junk\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "DELETE", req.Method)
		assert.Equal(t, "/x", req.URL)
	})

	t.Run("url is kept verbatim", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "GET /Path/ HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "/Path/", req.URL)
	})

	t.Run("missing protocol is tolerated", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "GET /only\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "/only", req.URL)
	})

	for _, line := range []string{"GET\r\n\r\n", "\r\n", "", "   \r\n"} {
		t.Run("illegal "+strings.TrimSpace(line), func(t *testing.T) {
			t.Parallel()
			_, err := readRequest(t, line)
			assert.ErrorIs(t, err, ErrIllegalRequest)
		})
	}
}

func TestReadRequest_Headers(t *testing.T) {
	t.Parallel()

	t.Run("repeated headers keep arrival order", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "GET / HTTP/1.1\r\nX-Tag: a\r\nX-Tag: b\r\nX-Tag: c\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, req.Header.Values("X-Tag"))
	})

	t.Run("value keeps everything after the first separator", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "GET / HTTP/1.1\r\nX-Note: a: b: c\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "a: b: c", req.Header.Get("X-Note"))
	})

	t.Run("names are case sensitive", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "GET / HTTP/1.1\r\ncontent-type: text/plain\r\n\r\n")
		require.NoError(t, err)
		assert.Empty(t, req.Header.Get("Content-Type"))
		assert.Equal(t, "text/plain", req.Header.Get("content-type"))
	})

	t.Run("whitespace-only line ends the block", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "GET / HTTP/1.1\r\nA: 1\r\n  \t\r\nB: 2\r\n\r\n")
		require.NoError(t, err)
		assert.True(t, req.Header.Has("A"))
		assert.False(t, req.Header.Has("B"))
	})

	t.Run("stream ending inside the block", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "GET / HTTP/1.1\r\nA: 1")
		require.NoError(t, err)
		assert.Equal(t, "1", req.Header.Get("A"))
	})

	t.Run("line without separator is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := readRequest(t, "GET / HTTP/1.1\r\nBroken:value\r\n\r\n")
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})
}

func TestReadRequest_Body(t *testing.T) {
	t.Parallel()

	t.Run("content length on POST", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(req.Body))
	})

	t.Run("chunked on PUT", func(t *testing.T) {
		t.Parallel()
		req, err := readRequest(t, "PUT /x HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "Wikipedia", string(req.Body))
	})

	t.Run("GET body is never read", func(t *testing.T) {
		t.Parallel()
		r := bufio.NewReader(strings.NewReader("GET /x HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"))
		req, err := ReadRequest(r)
		require.NoError(t, err)
		assert.Empty(t, req.Body)

		rest, err := r.Peek(5)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(rest))
	})

	t.Run("bad content length aborts", func(t *testing.T) {
		t.Parallel()
		_, err := readRequest(t, "POST /x HTTP/1.1\r\nContent-Length: five\r\n\r\nhello")
		assert.ErrorIs(t, err, ErrInvalidContentLength)
	})
}

func TestRequestClone(t *testing.T) {
	t.Parallel()

	orig := &Request{Method: "POST", URL: "/a", Header: Header{"A": {"1"}}, Body: []byte("x")}
	c := orig.Clone()
	c.Header.Add("A", "2")
	c.Body[0] = 'y'

	assert.Equal(t, []string{"1"}, orig.Header.Values("A"))
	assert.Equal(t, "x", string(orig.Body))
	assert.Nil(t, (*Request)(nil).Clone())
}

func BenchmarkReadRequest(b *testing.B) {
	raw := "POST /users HTTP/1.1\r\n" +
		"Host: localhost:4280\r\n" +
		"Content-Type: application/json\r\n" +
		"User-Agent: bench\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n" +
		"10\r\n{\"name\":\"Alice\"}\r\n0\r\n\r\n"

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	for i := 0; i < b.N; i++ {
		if _, err := ReadRequest(bufio.NewReader(strings.NewReader(raw))); err != nil {
			b.Fatal(err)
		}
	}
}
