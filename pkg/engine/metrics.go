package engine

import (
	"strconv"

	"github.com/getmockd/stubd/pkg/metrics"
)

// serverMetrics are the series the engine maintains.
type serverMetrics struct {
	requests    *metrics.Counter
	failures    *metrics.Counter
	duration    *metrics.Histogram
	stubs       *metrics.Gauge
	delay       *metrics.Gauge
	readTimeout *metrics.Gauge
}

func newServerMetrics(reg *metrics.Registry) *serverMetrics {
	return &serverMetrics{
		requests: reg.NewCounter("stubd_requests_total",
			"Requests answered, by response status code.", "status"),
		failures: reg.NewCounter("stubd_connection_errors_total",
			"Connections closed without a response, by failure kind.", "kind"),
		duration: reg.NewHistogram("stubd_request_duration_seconds",
			"Time from accept to response flush.", metrics.DefaultBuckets),
		stubs: reg.NewGauge("stubd_stubs",
			"Registered responses."),
		delay: reg.NewGauge("stubd_response_delay_seconds",
			"Configured delay before each response."),
		readTimeout: reg.NewGauge("stubd_read_timeout_seconds",
			"Configured per-connection read timeout."),
	}
}

func (m *serverMetrics) answered(status int, seconds float64) {
	m.requests.With(strconv.Itoa(status)).Inc()
	m.duration.With().Observe(seconds)
}

func (m *serverMetrics) failed(kind string) {
	m.failures.With(kind).Inc()
}
