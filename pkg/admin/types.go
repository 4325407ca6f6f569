package admin

import (
	"time"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/requestlog"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Status        string `json:"status"`
	Port          int    `json:"port"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	StubCount     int    `json:"stubCount"`
	ServedCount   int64  `json:"servedCount"`
	JournalCount  int    `json:"journalCount"`
}

// StubListResponse is returned by GET /stubs. Its shape is a valid stub
// document, so it can be sent back to PUT /stubs unchanged.
type StubListResponse struct {
	Stubs []config.StubEntry `json:"stubs"`
}

// ReplaceResponse is returned by PUT and DELETE /stubs.
type ReplaceResponse struct {
	Count int `json:"count"`
}

// SettingsRequest is the body of PUT /settings. Omitted fields are left
// unchanged.
type SettingsRequest struct {
	ReadTimeoutMs   *int `json:"readTimeoutMs,omitempty"`
	ResponseDelayMs *int `json:"responseDelayMs,omitempty"`
}

// SettingsResponse is returned by GET and PUT /settings.
type SettingsResponse struct {
	ReadTimeoutMs   int64 `json:"readTimeoutMs"`
	ResponseDelayMs int64 `json:"responseDelayMs"`
}

// LastRequestResponse is returned by GET /requests/last.
type LastRequestResponse struct {
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

// RequestListResponse is returned by GET /requests.
type RequestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}
