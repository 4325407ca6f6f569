package admin

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/requestlog"
)

// defaultRequestLimit caps GET /requests when no limit is given.
const defaultRequestLimit = 100

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:        "running",
		Port:          s.ctrl.Port(),
		UptimeSeconds: int64(s.ctrl.Uptime().Seconds()),
		StubCount:     len(s.ctrl.Responses()),
		ServedCount:   s.ctrl.RequestCount(),
		JournalCount:  s.ctrl.RequestLog().Count(),
	}
	if !s.ctrl.IsRunning() {
		resp.Status = "stopped"
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListStubs(w http.ResponseWriter, _ *http.Request) {
	responses := s.ctrl.Responses()
	entries := make([]config.StubEntry, len(responses))
	for i, r := range responses {
		entries[i] = config.EntryFor(r)
	}
	httputil.WriteJSON(w, http.StatusOK, StubListResponse{Stubs: entries})
}

func (s *Server) handleRegisterStub(w http.ResponseWriter, r *http.Request) {
	httputil.LimitBody(w, r)
	var entry config.StubEntry
	if err := httputil.DecodeJSON(r, &entry, false); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	file := &config.StubFile{Stubs: []config.StubEntry{entry}}
	if !s.checkStubs(w, file) {
		return
	}

	responses, err := config.Build(file.Stubs, nil)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "build_failed", err.Error())
		return
	}
	s.ctrl.Register(responses[0])
	s.log.Info("stub registered", "url", entry.URL)

	stored, _ := s.ctrl.Response(entry.URL)
	httputil.WriteJSON(w, http.StatusCreated, config.EntryFor(stored))
}

// handleReplaceStubs accepts a stub document in JSON, or YAML when the
// content type says so. The server block may adjust the read timeout and
// response delay; its other fields need a restart and are ignored.
func (s *Server) handleReplaceStubs(w http.ResponseWriter, r *http.Request) {
	httputil.LimitBody(w, r)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	var file *config.StubFile
	if isYAMLContent(r.Header.Get("Content-Type")) {
		file, err = config.ParseYAML(data)
	} else {
		file, err = config.ParseJSON(data)
	}
	if err != nil {
		writeConfigError(w, err)
		return
	}
	if !s.checkStubs(w, file) {
		return
	}

	responses, err := config.Build(file.Stubs, nil)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "build_failed", err.Error())
		return
	}
	s.ctrl.SetResponses(responses...)
	if srv := file.Server; srv != nil {
		if srv.ReadTimeoutMs != nil {
			s.ctrl.SetReadTimeout(millisTimeout(*srv.ReadTimeoutMs))
		}
		if srv.ResponseDelayMs != nil {
			s.ctrl.SetResponseDelay(time.Duration(*srv.ResponseDelayMs) * time.Millisecond)
		}
	}
	s.log.Info("stubs replaced", "count", len(responses))

	httputil.WriteJSON(w, http.StatusOK, ReplaceResponse{Count: len(responses)})
}

func (s *Server) handleClearStubs(w http.ResponseWriter, _ *http.Request) {
	count := len(s.ctrl.Responses())
	s.ctrl.ClearResponses()
	s.log.Info("stubs cleared", "count", count)
	httputil.WriteJSON(w, http.StatusOK, ReplaceResponse{Count: count})
}

func (s *Server) handleGetStub(w http.ResponseWriter, r *http.Request) {
	url, ok := requireURL(w, r)
	if !ok {
		return
	}
	resp, found := s.ctrl.Response(url)
	if !found {
		httputil.WriteError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no stub registered for %q", url))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, config.EntryFor(resp))
}

func (s *Server) handleDeleteStub(w http.ResponseWriter, r *http.Request) {
	url, ok := requireURL(w, r)
	if !ok {
		return
	}
	if !s.ctrl.RemoveResponse(url) {
		httputil.WriteError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no stub registered for %q", url))
		return
	}
	s.log.Info("stub removed", "url", url)
	httputil.WriteNoContent(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	httputil.LimitBody(w, r)
	var req SettingsRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	var issues []string
	if req.ReadTimeoutMs != nil && *req.ReadTimeoutMs < 0 {
		issues = append(issues, "readTimeoutMs: must not be negative")
	}
	if req.ResponseDelayMs != nil && *req.ResponseDelayMs < 0 {
		issues = append(issues, "responseDelayMs: must not be negative")
	}
	if len(issues) > 0 {
		httputil.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_error", "invalid settings", issues)
		return
	}

	if req.ReadTimeoutMs != nil {
		s.ctrl.SetReadTimeout(millisTimeout(*req.ReadTimeoutMs))
	}
	if req.ResponseDelayMs != nil {
		s.ctrl.SetResponseDelay(time.Duration(*req.ResponseDelayMs) * time.Millisecond)
	}
	settings := s.settings()
	s.log.Info("settings updated",
		"readTimeoutMs", settings.ReadTimeoutMs,
		"responseDelayMs", settings.ResponseDelayMs)
	httputil.WriteJSON(w, http.StatusOK, settings)
}

func (s *Server) settings() SettingsResponse {
	return SettingsResponse{
		ReadTimeoutMs:   max(s.ctrl.ReadTimeout(), 0).Milliseconds(),
		ResponseDelayMs: s.ctrl.ResponseDelay().Milliseconds(),
	}
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		Method: q.Get("method"),
		URL:    q.Get("url"),
		Limit:  defaultRequestLimit,
	}
	if n, ok := parsePositiveInt(q.Get("limit")); ok {
		filter.Limit = n
	}
	if n, ok := parseNonNegativeInt(q.Get("offset")); ok {
		filter.Offset = n
	}
	if n, ok := parsePositiveInt(q.Get("status")); ok {
		filter.StatusCode = n
	}
	filter.Matched = parseOptionalBool(q.Get("matched"))
	filter.HasError = parseOptionalBool(q.Get("error"))

	log := s.ctrl.RequestLog()
	entries := log.List(filter)
	httputil.WriteJSON(w, http.StatusOK, RequestListResponse{
		Requests: entries,
		Count:    len(entries),
		Total:    log.Count(),
	})
}

func (s *Server) handleLastRequest(w http.ResponseWriter, _ *http.Request) {
	req := s.ctrl.LastRequest()
	if req == nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "no request has been received yet")
		return
	}
	headers := map[string][]string(req.Header)
	if headers == nil {
		headers = map[string][]string{}
	}
	httputil.WriteJSON(w, http.StatusOK, LastRequestResponse{
		Method:  req.Method,
		URL:     req.URL,
		Headers: headers,
		Body:    string(req.Body),
	})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry := s.ctrl.RequestLog().Get(id)
	if entry == nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "request not found: "+id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (s *Server) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.RequestLog().Clear()
	httputil.WriteNoContent(w)
}

// checkStubs runs the semantic checks and rejects body files, which have no
// base directory over the API. It writes the error reply and returns false
// when file is unusable.
func (s *Server) checkStubs(w http.ResponseWriter, file *config.StubFile) bool {
	if err := file.Validate(); err != nil {
		writeConfigError(w, err)
		return false
	}
	for i, e := range file.Stubs {
		if e.BodyFile != "" {
			httputil.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_error",
				"bodyFile is not supported by the control API",
				[]string{fmt.Sprintf("stubs[%d].bodyFile: send the body inline", i)})
			return false
		}
	}
	return true
}

func writeConfigError(w http.ResponseWriter, err error) {
	var verr *config.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]string, len(verr.Issues))
		for i, issue := range verr.Issues {
			details[i] = issue.String()
		}
		httputil.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_error", "invalid stub document", details)
	case errors.Is(err, config.ErrInvalidJSON), errors.Is(err, config.ErrInvalidYAML):
		httputil.WriteError(w, http.StatusBadRequest, "invalid_document", err.Error())
	default:
		httputil.WriteDecodeError(w, err)
	}
}

func requireURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	url := r.URL.Query().Get("url")
	if url == "" {
		httputil.WriteError(w, http.StatusBadRequest, "missing_url", "the url query parameter is required")
		return "", false
	}
	return url, true
}

func isYAMLContent(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.Contains(mediaType, "yaml")
}

// millisTimeout converts a read timeout in milliseconds; zero disables the
// deadline.
func millisTimeout(ms int) time.Duration {
	if ms == 0 {
		return -1
	}
	return time.Duration(ms) * time.Millisecond
}

func parsePositiveInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseNonNegativeInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseOptionalBool(v string) *bool {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}
