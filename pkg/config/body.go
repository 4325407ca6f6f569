package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/getmockd/stubd/pkg/stub"
)

// ErrBodySourceNotFound is returned when a body file cannot be found.
var ErrBodySourceNotFound = errors.New("body source not found")

// BodyResolver loads the content named by a stub's bodyFile.
type BodyResolver interface {
	ResolveBody(name string) ([]byte, error)
}

// DirResolver resolves relative names against Dir. Absolute names are read
// as they are.
type DirResolver struct {
	Dir string
}

// Path returns the file name would resolve to.
func (r DirResolver) Path(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(r.Dir, filepath.FromSlash(name))
}

// ResolveBody reads the named file.
func (r DirResolver) ResolveBody(name string) ([]byte, error) {
	p := r.Path(name)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBodySourceNotFound, p)
		}
		return nil, fmt.Errorf("reading body file %s: %w", p, err)
	}
	return data, nil
}

// FSResolver resolves names inside an fs.FS, such as an embed.FS bundled
// with a test binary.
type FSResolver struct {
	FS fs.FS
}

// ResolveBody reads the named file from the file system. A leading slash is
// ignored.
func (r FSResolver) ResolveBody(name string) ([]byte, error) {
	clean := path.Clean("/" + name)[1:]
	data, err := fs.ReadFile(r.FS, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBodySourceNotFound, name)
		}
		return nil, fmt.Errorf("reading body file %s: %w", name, err)
	}
	return data, nil
}

// Build turns entries into responses. Every entry yields a response: one
// whose body file cannot be resolved becomes stub.Failed, and the failure is
// reported in the returned error alongside the others.
func Build(entries []StubEntry, resolver BodyResolver) ([]*stub.Response, error) {
	responses := make([]*stub.Response, 0, len(entries))
	var errs []error

	for _, e := range entries {
		resp, err := buildOne(e, resolver)
		if err != nil {
			errs = append(errs, fmt.Errorf("stub %s: %w", e.URL, err))
		}
		responses = append(responses, resp)
	}
	return responses, errors.Join(errs...)
}

func buildOne(e StubEntry, resolver BodyResolver) (*stub.Response, error) {
	resp := stub.New(e.URL)

	switch {
	case e.BodyFile != "":
		if resolver == nil {
			return stub.Failed(e.URL), fmt.Errorf("%w: %s", ErrBodySourceNotFound, e.BodyFile)
		}
		data, err := resolver.ResolveBody(e.BodyFile)
		if err != nil {
			return stub.Failed(e.URL), err
		}
		resp.Body = data
	case e.Body != nil:
		resp.Body = []byte(*e.Body)
	}

	if e.StatusCode != 0 {
		resp.StatusCode = e.StatusCode
	}
	if e.ContentType != "" {
		resp.ContentType = e.ContentType
	}
	for name, value := range e.Headers {
		resp.SetHeader(name, value)
	}
	resp.EchoRequestBody = e.Echo
	return resp, nil
}

// EntryFor converts a registered response back to its declarative form.
// The body is always inline.
func EntryFor(r *stub.Response) StubEntry {
	body := string(r.Body)
	e := StubEntry{
		URL:         r.URL,
		StatusCode:  r.StatusCode,
		ContentType: r.ContentType,
		Body:        &body,
		Echo:        r.EchoRequestBody,
	}
	if len(r.Headers) > 0 {
		e.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			e.Headers[k] = v
		}
	}
	return e
}
