package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/stubd/pkg/stub"
)

// LoadResult is everything LoadGlob read.
type LoadResult struct {
	// Files are the stub files read, in load order.
	Files []string

	// BodyFiles are the resolved paths of every referenced body file.
	BodyFiles []string

	// Server merges the server blocks of all files. Later files win.
	Server *ServerSettings

	// Responses are in registration order. When two files declare the same
	// URL the later one wins.
	Responses []*stub.Response

	// BodyErrors reports body files that could not be read. The affected
	// stubs are still present in Responses as 500 responses.
	BodyErrors error
}

// LoadGlob loads every stub file matching pattern, in lexical order, and
// follows their includes. Patterns support ** through doublestar. A pattern
// without wildcards must name an existing file.
func LoadGlob(pattern string) (*LoadResult, error) {
	matches, err := expandGlob(pattern)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no files match %s", ErrFileNotFound, pattern)
	}

	l := &globLoader{visited: make(map[string]bool), result: &LoadResult{}}
	for _, m := range matches {
		if err := l.load(m); err != nil {
			return nil, err
		}
	}
	l.result.BodyErrors = errors.Join(l.bodyErrs...)
	return l.result, nil
}

type globLoader struct {
	visited  map[string]bool
	result   *LoadResult
	bodyErrs []error
}

func (l *globLoader) load(path string) error {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	if l.visited[key] {
		return nil
	}
	l.visited[key] = true

	f, err := LoadFromFile(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)

	for i, inc := range f.Include {
		pattern := filepath.FromSlash(inc)
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(dir, pattern)
		}
		matches, err := expandGlob(pattern)
		if err != nil {
			return fmt.Errorf("%s: include[%d]: %w", path, i, err)
		}
		if len(matches) == 0 && !hasMeta(inc) {
			return fmt.Errorf("%s: include[%d]: %w: %s", path, i, ErrFileNotFound, inc)
		}
		for _, m := range matches {
			if err := l.load(m); err != nil {
				return err
			}
		}
	}

	l.result.Files = append(l.result.Files, path)
	if f.Server != nil {
		if l.result.Server == nil {
			l.result.Server = &ServerSettings{}
		}
		l.result.Server.merge(f.Server)
	}

	resolver := DirResolver{Dir: dir}
	for _, e := range f.Stubs {
		if e.BodyFile != "" {
			l.result.BodyFiles = append(l.result.BodyFiles, resolver.Path(e.BodyFile))
		}
	}
	responses, err := Build(f.Stubs, resolver)
	if err != nil {
		l.bodyErrs = append(l.bodyErrs, fmt.Errorf("%s: %w", path, err))
	}
	l.result.Responses = append(l.result.Responses, responses...)
	return nil
}

func (s *ServerSettings) merge(o *ServerSettings) {
	if o.Port != nil {
		s.Port = o.Port
	}
	if o.AdminPort != nil {
		s.AdminPort = o.AdminPort
	}
	if o.ReadTimeoutMs != nil {
		s.ReadTimeoutMs = o.ReadTimeoutMs
	}
	if o.ResponseDelayMs != nil {
		s.ResponseDelayMs = o.ResponseDelayMs
	}
	if o.MaxLogEntries != nil {
		s.MaxLogEntries = o.MaxLogEntries
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		s.LogFormat = o.LogFormat
	}
}

// expandGlob lists the regular files matching pattern, sorted.
func expandGlob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// globBase returns the directory part of pattern that contains no
// wildcards.
func globBase(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}
