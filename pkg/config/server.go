package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default server settings.
const (
	DefaultPort            = 4280
	DefaultAdminPort       = 4290
	DefaultReadTimeoutMs   = 5000
	DefaultResponseDelayMs = 0
	DefaultMaxLogEntries   = 1000
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort            = "STUBD_PORT"
	EnvAdminPort       = "STUBD_ADMIN_PORT"
	EnvReadTimeoutMs   = "STUBD_READ_TIMEOUT_MS"
	EnvResponseDelayMs = "STUBD_RESPONSE_DELAY_MS"
	EnvLogLevel        = "STUBD_LOG_LEVEL"
	EnvLogFormat       = "STUBD_LOG_FORMAT"
)

// ServerConfiguration is the resolved set of server settings.
type ServerConfiguration struct {
	Port int

	// AdminPort is the control API port. Zero disables the control API.
	AdminPort int

	// ReadTimeoutMs bounds reads on each connection. Zero disables it.
	ReadTimeoutMs   int
	ResponseDelayMs int
	MaxLogEntries   int
	LogLevel        string
	LogFormat       string
}

// ServerSettings is the server block of a stub file. Unset fields leave the
// current value alone, so an explicit zero (for example adminPort: 0) is
// distinguishable from an omitted field.
type ServerSettings struct {
	Port            *int   `json:"port,omitempty" yaml:"port,omitempty"`
	AdminPort       *int   `json:"adminPort,omitempty" yaml:"adminPort,omitempty"`
	ReadTimeoutMs   *int   `json:"readTimeoutMs,omitempty" yaml:"readTimeoutMs,omitempty"`
	ResponseDelayMs *int   `json:"responseDelayMs,omitempty" yaml:"responseDelayMs,omitempty"`
	MaxLogEntries   *int   `json:"maxLogEntries,omitempty" yaml:"maxLogEntries,omitempty"`
	LogLevel        string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat       string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
}

// DefaultServerConfiguration returns the built-in defaults.
func DefaultServerConfiguration() ServerConfiguration {
	return ServerConfiguration{
		Port:            DefaultPort,
		AdminPort:       DefaultAdminPort,
		ReadTimeoutMs:   DefaultReadTimeoutMs,
		ResponseDelayMs: DefaultResponseDelayMs,
		MaxLogEntries:   DefaultMaxLogEntries,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

// Apply overlays the fields set in s.
func (c *ServerConfiguration) Apply(s *ServerSettings) {
	if s == nil {
		return
	}
	setInt(&c.Port, s.Port)
	setInt(&c.AdminPort, s.AdminPort)
	setInt(&c.ReadTimeoutMs, s.ReadTimeoutMs)
	setInt(&c.ResponseDelayMs, s.ResponseDelayMs)
	setInt(&c.MaxLogEntries, s.MaxLogEntries)
	if s.LogLevel != "" {
		c.LogLevel = s.LogLevel
	}
	if s.LogFormat != "" {
		c.LogFormat = s.LogFormat
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// ApplyEnv overlays the STUBD_* environment variables. lookup defaults to
// os.LookupEnv. A variable that is set but not a valid integer is an error.
func (c *ServerConfiguration) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvPort, &c.Port},
		{EnvAdminPort, &c.AdminPort},
		{EnvReadTimeoutMs, &c.ReadTimeoutMs},
		{EnvResponseDelayMs, &c.ResponseDelayMs},
	}
	for _, v := range ints {
		raw, ok := lookup(v.name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
	}

	if raw, ok := lookup(EnvLogLevel); ok && raw != "" {
		c.LogLevel = raw
	}
	if raw, ok := lookup(EnvLogFormat); ok && raw != "" {
		c.LogFormat = raw
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *ServerConfiguration) Validate() error {
	verr := &ValidationError{}
	c.toSettings().validate("", verr)
	return verr.orNil()
}

func (c *ServerConfiguration) toSettings() *ServerSettings {
	return &ServerSettings{
		Port:            &c.Port,
		AdminPort:       &c.AdminPort,
		ReadTimeoutMs:   &c.ReadTimeoutMs,
		ResponseDelayMs: &c.ResponseDelayMs,
		MaxLogEntries:   &c.MaxLogEntries,
		LogLevel:        c.LogLevel,
		LogFormat:       c.LogFormat,
	}
}

func (s *ServerSettings) validate(prefix string, verr *ValidationError) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	ports := []struct {
		name string
		v    *int
	}{{"port", s.Port}, {"adminPort", s.AdminPort}}
	for _, p := range ports {
		if p.v != nil && (*p.v < 0 || *p.v > 65535) {
			verr.add(field(p.name), "%d is outside 0-65535", *p.v)
		}
	}

	counts := []struct {
		name string
		v    *int
	}{
		{"readTimeoutMs", s.ReadTimeoutMs},
		{"responseDelayMs", s.ResponseDelayMs},
		{"maxLogEntries", s.MaxLogEntries},
	}
	for _, c := range counts {
		if c.v != nil && *c.v < 0 {
			verr.add(field(c.name), "must not be negative")
		}
	}
	if s.Port != nil && s.AdminPort != nil && *s.Port != 0 && *s.Port == *s.AdminPort {
		verr.add(field("adminPort"), "conflicts with port %d", *s.Port)
	}

	switch strings.ToLower(s.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		verr.add(field("logLevel"), "unknown level %q", s.LogLevel)
	}
	switch strings.ToLower(s.LogFormat) {
	case "", "text", "json":
	default:
		verr.add(field("logFormat"), "unknown format %q", s.LogFormat)
	}
}

// ReadTimeout returns ReadTimeoutMs as a duration. Zero milliseconds means
// no deadline and is returned as -1.
func (c ServerConfiguration) ReadTimeout() time.Duration {
	if c.ReadTimeoutMs == 0 {
		return -1
	}
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// ResponseDelay returns ResponseDelayMs as a duration.
func (c ServerConfiguration) ResponseDelay() time.Duration {
	return time.Duration(c.ResponseDelayMs) * time.Millisecond
}
