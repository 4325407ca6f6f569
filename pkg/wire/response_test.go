package wire

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponse(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	resp := &Response{
		StatusCode: 201,
		Header: []HeaderField{
			{Name: "Content-Type", Value: "text/plain"},
			{Name: "Content-Length", Value: "2"},
		},
		Body: []byte("ok"),
	}

	require.NoError(t, WriteResponse(bufio.NewWriter(&buf), resp))
	assert.Equal(t, "HTTP/1.1 201\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nok", buf.String())
}

func TestWriteResponse_NoHeadersNoBody(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(bufio.NewWriter(&buf), &Response{StatusCode: 500}))
	assert.Equal(t, "HTTP/1.1 500\r\n\r\n", buf.String())
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteResponse_ReportsWriteError(t *testing.T) {
	t.Parallel()

	err := WriteResponse(bufio.NewWriter(errWriter{}), &Response{StatusCode: 200, Body: []byte("x")})
	assert.Error(t, err)
}

func TestResponseGet(t *testing.T) {
	t.Parallel()

	resp := &Response{Header: []HeaderField{{Name: "Server", Value: "stubd/1.0"}}}
	assert.Equal(t, "stubd/1.0", resp.Get("Server"))
	assert.Empty(t, resp.Get("Missing"))
}
