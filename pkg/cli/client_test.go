package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/admin"
	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/stubtest"
)

// resetFlags restores every flag of the command tree to its default so
// commands can run more than once in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

// newControlled starts a stub server with a control API in front of it.
func newControlled(t *testing.T) (*stubtest.Server, string) {
	t.Helper()
	s := stubtest.New(t)
	ts := httptest.NewServer(admin.NewServer(s.Engine(), "127.0.0.1:0").Handler())
	t.Cleanup(ts.Close)
	return s, ts.URL
}

func TestResolveAdminURL(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addClientFlags(cmd)
	t.Cleanup(func() { adminURL = "" })

	assert.Equal(t, "http://localhost:4290", resolveAdminURL(cmd, envMap(nil)))
	assert.Equal(t, "http://env:1", resolveAdminURL(cmd, envMap(map[string]string{EnvAdminURL: "http://env:1"})))
	assert.Equal(t, "http://localhost:4290", resolveAdminURL(cmd, envMap(map[string]string{EnvAdminURL: ""})))

	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--admin-url", "http://flag:2"}))
	assert.Equal(t, "http://flag:2", resolveAdminURL(cmd, envMap(map[string]string{EnvAdminURL: "http://env:1"})))
}

func TestParseHeaderFlags(t *testing.T) {
	h, err := parseHeaderFlags([]string{"X-One: 1", "X-Two:two words ", "X-Empty:"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-One": "1", "X-Two": "two words", "X-Empty": ""}, h)

	h, err = parseHeaderFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = parseHeaderFlags([]string{"no-colon"})
	assert.ErrorContains(t, err, "invalid header")
	_, err = parseHeaderFlags([]string{": value"})
	assert.Error(t, err)
}

func TestStubsCommands(t *testing.T) {
	s, url := newControlled(t)

	out, err := runCLI(t, "stubs", "list", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "No stubs registered")

	out, err = runCLI(t, "stubs", "add", "/users/1", "--admin-url", url,
		"--status", "202", "--body", `{"id":1}`, "-H", "X-Trace: abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered /users/1 (202)")

	res := s.Do("GET", "/users/1", nil, "")
	res.AssertStatus(t, 202)
	res.AssertBody(t, `{"id":1}`)
	res.AssertHeader(t, "X-Trace", "abc")

	out, err = runCLI(t, "stubs", "add", "/echo", "--admin-url", url, "--echo")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered /echo (200)")

	out, err = runCLI(t, "stubs", "list", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "/users/1")
	assert.Contains(t, out, "(echo)")

	out, err = runCLI(t, "stubs", "get", "/users/1", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "statusCode: 202")
	assert.Contains(t, out, "X-Trace: abc")

	out, err = runCLI(t, "--json", "stubs", "get", "/users/1", "--admin-url", url)
	require.NoError(t, err)
	var entry config.StubEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, 202, entry.StatusCode)

	out, err = runCLI(t, "stubs", "rm", "/users/1", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed /users/1")

	_, err = runCLI(t, "stubs", "rm", "/users/1", "--admin-url", url)
	assert.True(t, admin.IsNotFound(err), "%v", err)

	out, err = runCLI(t, "stubs", "clear", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 stubs")
	assert.Empty(t, s.Engine().Responses())
}

func TestStubsLoad(t *testing.T) {
	s, url := newControlled(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
server:
  port: 1
stubs:
  - url: /a
    bodyFile: a.txt
  - url: /shared
    body: first
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(`
stubs:
  - url: /shared
    body: second
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("from file"), 0o644))
	s.Stub("/old").Reply()

	out, err := runCLI(t, "stubs", "load", filepath.Join(dir, "*.yaml"), "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 stubs from 2 files")

	_, ok := s.Engine().Response("/old")
	assert.False(t, ok)
	s.Do("GET", "/a", nil, "").AssertBody(t, "from file")
	s.Do("GET", "/shared", nil, "").AssertBody(t, "second")
}

func TestStubsLoad_RefusesUnreadableBodyFile(t *testing.T) {
	s, url := newControlled(t)
	path := writeStubFile(t, `
stubs:
  - url: /a
    bodyFile: missing.txt
`)
	s.Stub("/keep").Reply()

	_, err := runCLI(t, "stubs", "load", path, "--admin-url", url)
	assert.ErrorContains(t, err, "unreadable body files")
	_, ok := s.Engine().Response("/keep")
	assert.True(t, ok)
}

func TestRequestsCommands(t *testing.T) {
	s, url := newControlled(t)
	s.Stub("/hit").Reply()
	s.Do("POST", "/hit", map[string]string{"X-Test": "1"}, "payload")
	s.Do("GET", "/miss", nil, "")

	out, err := runCLI(t, "requests", "list", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "/hit")
	assert.Contains(t, out, "/miss")
	assert.Contains(t, out, "2 of 2 requests")

	out, err = runCLI(t, "requests", "list", "--admin-url", url, "--unmatched")
	require.NoError(t, err)
	assert.NotContains(t, out, "/hit")
	assert.Contains(t, out, "1 of 2 requests")

	out, err = runCLI(t, "--json", "requests", "list", "--admin-url", url, "--method", "POST")
	require.NoError(t, err)
	var list admin.RequestListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Requests, 1)
	assert.Equal(t, "payload", list.Requests[0].Body)

	_, err = runCLI(t, "requests", "list", "--admin-url", url, "--matched", "--unmatched")
	assert.ErrorContains(t, err, "mutually exclusive")

	out, err = runCLI(t, "requests", "last", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "GET /miss")

	out, err = runCLI(t, "requests", "clear", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Request journal cleared")
	assert.Empty(t, s.Requests())
}

func TestSettingsAndStatusCommands(t *testing.T) {
	s, url := newControlled(t)

	out, err := runCLI(t, "settings", "--admin-url", url, "--delay", "25", "--read-timeout", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Response delay:  25ms")
	assert.Contains(t, out, "Read timeout:    0ms")
	assert.Equal(t, int64(25), s.Engine().ResponseDelay().Milliseconds())

	out, err = runCLI(t, "--json", "settings", "--admin-url", url)
	require.NoError(t, err)
	assert.JSONEq(t, `{"readTimeoutMs":0,"responseDelayMs":25}`, out)

	_, err = runCLI(t, "settings", "--admin-url", url, "--delay=-1")
	assert.Error(t, err)

	s.Stub("/x").Reply()
	out, err = runCLI(t, "status", "--admin-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Stubs:")
	assert.Contains(t, out, url)
}

func TestClientCommands_ConnectionError(t *testing.T) {
	port := getFreePort(t)
	_, err := runCLI(t, "status", "--admin-url", "http://127.0.0.1:"+strconv.Itoa(port))
	var apiErr *admin.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "connection_error", apiErr.ErrorCode)
}
