package wire

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		lines []string
	}{
		{"crlf terminated", "GET / HTTP/1.1\r\nHost: x\r\n", []string{"GET / HTTP/1.1", "Host: x"}},
		{"bare lf terminated", "a\nb\n", []string{"a", "b"}},
		{"mixed terminators", "a\r\nb\nc\r\n", []string{"a", "b", "c"}},
		{"bare cr kept", "a\rb\r\n", []string{"a\rb"}},
		{"byte after bare cr is not examined", "a\r\r\nz\n", []string{"a\r\r", "z"}},
		{"empty line", "\r\nx\n", []string{"", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := bufio.NewReader(strings.NewReader(tt.input))
			for _, want := range tt.lines {
				got, err := ReadLine(r)
				require.NoError(t, err)
				assert.Equal(t, want, string(got))
			}
			rest, err := ReadLine(r)
			assert.ErrorIs(t, err, io.EOF)
			assert.Empty(t, rest)
		})
	}
}

func TestReadLine_EndOfStream(t *testing.T) {
	t.Parallel()

	t.Run("partial line is returned with EOF", func(t *testing.T) {
		t.Parallel()
		got, err := ReadLine(bufio.NewReader(strings.NewReader("partial")))
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, "partial", string(got))
	})

	t.Run("trailing bare cr is kept", func(t *testing.T) {
		t.Parallel()
		got, err := ReadLine(bufio.NewReader(strings.NewReader("abc\r")))
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, "abc\r", string(got))
	})

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()
		got, err := ReadLine(bufio.NewReader(strings.NewReader("")))
		assert.ErrorIs(t, err, io.EOF)
		assert.Empty(t, got)
	})
}

type failingReader struct{ err error }

func (f failingReader) ReadByte() (byte, error) { return 0, f.err }

func TestReadLine_PropagatesReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := ReadLine(failingReader{err: boom})
	assert.ErrorIs(t, err, boom)
}
