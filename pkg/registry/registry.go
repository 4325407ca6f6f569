// Package registry holds the mock responses served by the stub engine,
// keyed by exact request URL.
package registry

import (
	"sort"
	"sync"

	"github.com/getmockd/stubd/pkg/stub"
)

// Registry maps URLs to mock responses. Registering a URL that already has
// a response replaces it.
//
// All methods are safe for concurrent use. Entries are copied on the way in
// and on the way out, so callers never share memory with the stored state.
type Registry struct {
	mu        sync.RWMutex
	responses map[string]*stub.Response
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{responses: make(map[string]*stub.Response)}
}

// NewWith returns a registry holding responses. Later entries win over
// earlier ones with the same URL.
func NewWith(responses ...*stub.Response) *Registry {
	r := New()
	r.Replace(responses...)
	return r
}

// Register stores resp under resp.URL, replacing any previous entry.
// A nil response is ignored.
func (r *Registry) Register(resp *stub.Response) {
	if resp == nil {
		return
	}
	r.mu.Lock()
	r.responses[resp.URL] = resp.Clone()
	r.mu.Unlock()
}

// Replace drops every entry and stores responses in order.
func (r *Registry) Replace(responses ...*stub.Response) {
	next := make(map[string]*stub.Response, len(responses))
	for _, resp := range responses {
		if resp != nil {
			next[resp.URL] = resp.Clone()
		}
	}
	r.mu.Lock()
	r.responses = next
	r.mu.Unlock()
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.responses = make(map[string]*stub.Response)
	r.mu.Unlock()
}

// Remove deletes the entry for url and reports whether there was one.
func (r *Registry) Remove(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.responses[url]
	delete(r.responses, url)
	return ok
}

// Get returns a copy of the entry for url.
func (r *Registry) Get(url string) (*stub.Response, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp, ok := r.responses[url]
	if !ok {
		return nil, false
	}
	return resp.Clone(), true
}

// Resolve looks up url and, when echo is true and the entry has
// EchoRequestBody set, stores body as the entry's new body. The lookup and
// the update happen under one lock, so no reader observes a half-applied
// echo. The returned response is a copy taken after the update.
func (r *Registry) Resolve(url string, body []byte, echo bool) (*stub.Response, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[url]
	if !ok {
		return nil, false
	}
	if echo && resp.EchoRequestBody {
		resp.Body = append([]byte{}, body...)
	}
	return resp.Clone(), true
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.responses)
}

// List returns copies of all entries sorted by URL.
func (r *Registry) List() []*stub.Response {
	r.mu.RLock()
	out := make([]*stub.Response, 0, len(r.responses))
	for _, resp := range r.responses {
		out = append(out, resp.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}
