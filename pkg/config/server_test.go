package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaultServerConfiguration(t *testing.T) {
	c := DefaultServerConfiguration()
	assert.Equal(t, 4280, c.Port)
	assert.Equal(t, 4290, c.AdminPort)
	assert.Equal(t, 5*time.Second, c.ReadTimeout())
	assert.Zero(t, c.ResponseDelay())
	assert.NoError(t, c.Validate())
}

func TestServerConfiguration_Apply(t *testing.T) {
	c := DefaultServerConfiguration()
	c.Apply(&ServerSettings{
		AdminPort:       intPtr(0),
		ResponseDelayMs: intPtr(250),
		LogFormat:       "json",
	})

	assert.Equal(t, 4280, c.Port)
	assert.Equal(t, 0, c.AdminPort)
	assert.Equal(t, 250*time.Millisecond, c.ResponseDelay())
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, "info", c.LogLevel)

	c.Apply(nil)
	assert.Equal(t, 0, c.AdminPort)
}

func TestServerConfiguration_ApplyEnv(t *testing.T) {
	c := DefaultServerConfiguration()
	err := c.ApplyEnv(env(map[string]string{
		EnvPort:            "9000",
		EnvAdminPort:       " 0 ",
		EnvReadTimeoutMs:   "",
		EnvResponseDelayMs: "15",
		EnvLogLevel:        "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, c.Port)
	assert.Equal(t, 0, c.AdminPort)
	assert.Equal(t, DefaultReadTimeoutMs, c.ReadTimeoutMs)
	assert.Equal(t, 15, c.ResponseDelayMs)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
}

func TestServerConfiguration_ApplyEnvInvalid(t *testing.T) {
	c := DefaultServerConfiguration()
	err := c.ApplyEnv(env(map[string]string{EnvPort: "eighty"}))
	assert.ErrorContains(t, err, EnvPort)
}

func TestServerConfiguration_ApplyEnvDefaultsToProcessEnv(t *testing.T) {
	t.Setenv(EnvResponseDelayMs, "42")
	c := DefaultServerConfiguration()
	require.NoError(t, c.ApplyEnv(nil))
	assert.Equal(t, 42, c.ResponseDelayMs)
}

func TestServerConfiguration_Validate(t *testing.T) {
	c := ServerConfiguration{
		Port:          70000,
		AdminPort:     -1,
		ReadTimeoutMs: -5,
		LogLevel:      "loud",
		LogFormat:     "xml",
	}

	var verr *ValidationError
	require.ErrorAs(t, c.Validate(), &verr)
	var paths []string
	for _, i := range verr.Issues {
		paths = append(paths, i.Path)
	}
	assert.Equal(t, []string{"port", "adminPort", "readTimeoutMs", "logLevel", "logFormat"}, paths)
}

func TestServerConfiguration_PortConflict(t *testing.T) {
	c := DefaultServerConfiguration()
	c.AdminPort = c.Port
	assert.ErrorContains(t, c.Validate(), "conflicts with port")

	c.Port, c.AdminPort = 0, 0
	assert.NoError(t, c.Validate())
}

func TestServerConfiguration_ZeroReadTimeoutDisables(t *testing.T) {
	c := DefaultServerConfiguration()
	c.ReadTimeoutMs = 0
	assert.Negative(t, c.ReadTimeout())
}
