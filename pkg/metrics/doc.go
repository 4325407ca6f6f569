// Package metrics provides Prometheus-compatible counters, gauges and
// histograms with text exposition (text/plain; version=0.0.4).
//
// All metric types are safe for concurrent use. Labelled series are created
// on first use:
//
//	reg := metrics.NewRegistry()
//	served := reg.NewCounter("stubd_requests_total", "Requests served", "status")
//	served.With("200").Inc()
//
//	http.Handle("/metrics", reg.Handler())
package metrics
