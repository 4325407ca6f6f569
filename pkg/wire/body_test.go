package wire

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadChunked(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"two chunks", "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n", "Wikipedia"},
		{"only terminal chunk", "0\r\n\r\n", ""},
		{"uppercase hex", "A\r\n0123456789\r\n0\r\n\r\n", "0123456789"},
		{"padded size line", " 3 \r\nabc\r\n 0 \r\n\r\n", "abc"},
		{"lf framing", "3\nabc\n0\n\n", "abc"},
		{"chunk data containing crlf", "4\r\na\r\nb\r\n0\r\n\r\n", "a\r\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ReadChunked(bufio.NewReader(strings.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestReadChunked_ConsumesTrailingLine(t *testing.T) {
	t.Parallel()

	r := bufio.NewReader(strings.NewReader("1\r\nx\r\n0\r\n\r\nNEXT"))
	_, err := ReadChunked(r)
	require.NoError(t, err)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "NEXT", string(rest))
}

func TestReadChunked_LargeChunkAcrossReads(t *testing.T) {
	t.Parallel()

	data := strings.Repeat("z", 3000)
	input := strconv.FormatInt(int64(len(data)), 16) + "\r\n" + data + "\r\n0\r\n\r\n"
	r := bufio.NewReaderSize(iotest.OneByteReader(strings.NewReader(input)), 16)

	got, err := ReadChunked(r)
	require.NoError(t, err)
	assert.Equal(t, data, string(got))
}

func TestReadChunked_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non hex size", func(t *testing.T) {
		t.Parallel()
		_, err := ReadChunked(bufio.NewReader(strings.NewReader("zz\r\nabc\r\n0\r\n\r\n")))
		assert.ErrorIs(t, err, ErrInvalidChunkSize)
	})

	t.Run("stream ends before terminal chunk", func(t *testing.T) {
		t.Parallel()
		_, err := ReadChunked(bufio.NewReader(strings.NewReader("3\r\nabc\r\n")))
		assert.ErrorIs(t, err, ErrInvalidChunkSize)
	})

	t.Run("stream ends inside chunk data", func(t *testing.T) {
		t.Parallel()
		_, err := ReadChunked(bufio.NewReader(strings.NewReader("a\r\nabc")))
		assert.ErrorIs(t, err, ErrShortBody)
	})
}

func TestReadBody(t *testing.T) {
	t.Parallel()

	t.Run("exact content length", func(t *testing.T) {
		t.Parallel()
		got, err := ReadBody(bufio.NewReader(strings.NewReader("helloEXTRA")), Header{"Content-Length": {"5"}})
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	})

	t.Run("zero content length", func(t *testing.T) {
		t.Parallel()
		got, err := ReadBody(bufio.NewReader(strings.NewReader("ignored")), Header{"Content-Length": {"0"}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("absent content length", func(t *testing.T) {
		t.Parallel()
		got, err := ReadBody(bufio.NewReader(strings.NewReader("ignored")), Header{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("first content length value wins", func(t *testing.T) {
		t.Parallel()
		got, err := ReadBody(bufio.NewReader(strings.NewReader("abcdef")), Header{"Content-Length": {"2", "6"}})
		require.NoError(t, err)
		assert.Equal(t, "ab", string(got))
	})

	t.Run("partial reads are retried", func(t *testing.T) {
		t.Parallel()
		r := bufio.NewReaderSize(iotest.OneByteReader(strings.NewReader("0123456789")), 16)
		got, err := ReadBody(r, Header{"Content-Length": {"10"}})
		require.NoError(t, err)
		assert.Equal(t, "0123456789", string(got))
	})

	t.Run("short body", func(t *testing.T) {
		t.Parallel()
		_, err := ReadBody(bufio.NewReader(strings.NewReader("abc")), Header{"Content-Length": {"5"}})
		assert.ErrorIs(t, err, ErrShortBody)
	})

	t.Run("signed or padded content length", func(t *testing.T) {
		t.Parallel()
		for _, v := range []string{"-1", "+3", " 3", "3 ", "0x3", ""} {
			_, err := ReadBody(bufio.NewReader(strings.NewReader("abc")), Header{"Content-Length": {v}})
			assert.ErrorIs(t, err, ErrInvalidContentLength, "Content-Length %q", v)
		}
	})

	t.Run("chunked match is case sensitive", func(t *testing.T) {
		t.Parallel()
		h := Header{"Transfer-Encoding": {"Chunked"}, "Content-Length": {"3"}}
		got, err := ReadBody(bufio.NewReader(strings.NewReader("3\r\nabc\r\n0\r\n\r\n")), h)
		require.NoError(t, err)
		assert.Equal(t, "3\r\n", string(got))
	})

	t.Run("chunked wins over content length", func(t *testing.T) {
		t.Parallel()
		h := Header{"Transfer-Encoding": {"chunked"}, "Content-Length": {"99"}}
		got, err := ReadBody(bufio.NewReader(strings.NewReader("3\r\nabc\r\n0\r\n\r\n")), h)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})
}
