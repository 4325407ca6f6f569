// Package requestlog keeps a bounded journal of the requests served by the
// stub engine so tests and operators can inspect what a client actually
// sent.
package requestlog
