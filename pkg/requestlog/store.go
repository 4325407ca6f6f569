package requestlog

import "strings"

// Logger is the minimal interface for recording entries.
type Logger interface {
	Log(entry *Entry)
}

// Store is a queryable request journal.
type Store interface {
	Logger

	// Get retrieves an entry by ID, or nil.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of entries held.
	Count() int
}

// Filter narrows List results. Zero-valued fields match everything.
type Filter struct {
	Method string

	// URL matches entries whose URL starts with this prefix.
	URL string

	// Matched filters on whether a registered response answered.
	Matched *bool

	StatusCode int

	// HasError filters on whether the connection failed.
	HasError *bool

	Limit  int
	Offset int
}

// Match reports whether entry satisfies every criterion in f.
func (f *Filter) Match(entry *Entry) bool {
	if f == nil {
		return true
	}
	if f.Method != "" && entry.Method != f.Method {
		return false
	}
	if f.URL != "" && !strings.HasPrefix(entry.URL, f.URL) {
		return false
	}
	if f.Matched != nil && entry.Matched != *f.Matched {
		return false
	}
	if f.StatusCode != 0 && entry.ResponseStatus != f.StatusCode {
		return false
	}
	if f.HasError != nil && (entry.Error != "") != *f.HasError {
		return false
	}
	return true
}
