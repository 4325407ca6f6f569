package wire

// Header holds request header values keyed by the name exactly as it
// arrived on the wire. Names are case-sensitive and a repeated name keeps
// every value in arrival order.
type Header map[string][]string

// Add appends value to the values already recorded for name.
func (h Header) Add(name, value string) {
	h[name] = append(h[name], value)
}

// Get returns the first value recorded for name, or "" if there is none.
func (h Header) Get(name string) string {
	if v := h[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether at least one value was recorded for name.
func (h Header) Has(name string) bool {
	return len(h[name]) > 0
}

// Values returns all values recorded for name.
func (h Header) Values(name string) []string {
	return h[name]
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}
