package wire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// chunkReadSize bounds a single read while accumulating chunk data.
	chunkReadSize = 512

	// maxPrealloc caps the buffer reserved up front for a declared size, so
	// a bogus size line cannot allocate gigabytes before any data arrives.
	maxPrealloc = 64 << 10
)

// ReadBody decodes the request body that follows the header block.
//
// A first Transfer-Encoding value of exactly "chunked" selects chunked
// decoding; the comparison is case-sensitive. Otherwise the first
// Content-Length value, if any, gives the body size. With neither, the body
// is empty.
func ReadBody(r *bufio.Reader, h Header) ([]byte, error) {
	if h.Get("Transfer-Encoding") == "chunked" {
		return ReadChunked(r)
	}
	if !h.Has("Content-Length") {
		return nil, nil
	}

	// Digits only: no sign, no whitespace.
	raw := h.Get("Content-Length")
	n, err := strconv.ParseUint(raw, 10, 31)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidContentLength, raw, err)
	}
	return ReadFixed(r, int(n))
}

// ReadFixed reads exactly n bytes. Partial reads are retried until n bytes
// have arrived; a stream that ends first yields ErrShortBody.
func ReadFixed(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrShortBody, n, got)
		}
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return buf, nil
}

// ReadChunked decodes a chunked body: hex-size lines each followed by that
// many data bytes and a line break, terminated by a "0" size line and one
// more line.
func ReadChunked(r *bufio.Reader) ([]byte, error) {
	var body bytes.Buffer
	for {
		line, err := ReadLine(r)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading chunk size: %w", err)
		}

		size := strings.TrimSpace(string(line))
		if size == "0" {
			if _, err := ReadLine(r); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("reading last chunk: %w", err)
			}
			return body.Bytes(), nil
		}

		n, err := strconv.ParseUint(size, 16, 31)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidChunkSize, size, err)
		}

		chunk, err := readChunk(r, int(n))
		if err != nil {
			return nil, err
		}
		if _, err := ReadLine(r); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading chunk trailer: %w", err)
		}
		body.Write(chunk)
	}
}

func readChunk(r io.Reader, n int) ([]byte, error) {
	chunk := make([]byte, 0, min(n, maxPrealloc))
	buf := make([]byte, chunkReadSize)
	for len(chunk) < n {
		m, err := r.Read(buf[:min(len(buf), n-len(chunk))])
		chunk = append(chunk, buf[:m]...)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(chunk) < n {
				return nil, fmt.Errorf("%w: chunk wants %d bytes, got %d", ErrShortBody, n, len(chunk))
			}
			break
		}
		return nil, fmt.Errorf("reading chunk: %w", err)
	}
	return chunk, nil
}
