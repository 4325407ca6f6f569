package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urls(result *LoadResult) []string {
	out := make([]string, len(result.Responses))
	for i, r := range result.Responses {
		out[i] = r.URL
	}
	return out
}

func TestLoadGlob_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bodies/a.json", `{"a":true}`)
	path := writeFile(t, dir, "stubs.yaml", `
stubs:
  - url: /a
    bodyFile: bodies/a.json
`)

	result, err := LoadGlob(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, result.Files)
	assert.Equal(t, []string{filepath.Join(dir, "bodies", "a.json")}, result.BodyFiles)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, `{"a":true}`, string(result.Responses[0].Body))
	assert.NoError(t, result.BodyErrors)
	assert.Nil(t, result.Server)
}

func TestLoadGlob_RecursivePattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stubs/b.yaml", "stubs:\n  - url: /b\n")
	writeFile(t, dir, "stubs/a.json", `{"stubs": [{"url": "/a"}]}`)
	writeFile(t, dir, "stubs/deep/c.yml", "stubs:\n  - url: /c\n")
	writeFile(t, dir, "stubs/notes.txt", "ignored")

	result, err := LoadGlob(filepath.Join(dir, "stubs", "**", "*.{yaml,yml,json}"))
	require.NoError(t, err)
	assert.Len(t, result.Files, 3)
	assert.ElementsMatch(t, []string{"/a", "/b", "/c"}, urls(result))
}

func TestLoadGlob_NoMatches(t *testing.T) {
	_, err := LoadGlob(filepath.Join(t.TempDir(), "*.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = LoadGlob(filepath.Join(t.TempDir(), "stubs.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadGlob_Includes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared/common.yaml", `
server:
  port: 7000
  responseDelayMs: 10
stubs:
  - url: /health
  - url: /override
    body: from-include
`)
	main := writeFile(t, dir, "main.yaml", `
include:
  - shared/*.yaml
  - main.yaml
server:
  port: 7001
stubs:
  - url: /override
    body: from-main
`)

	result, err := LoadGlob(main)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "shared", "common.yaml"), main}, result.Files)
	assert.Equal(t, []string{"/health", "/override", "/override"}, urls(result))
	assert.Equal(t, "from-main", string(result.Responses[2].Body))

	require.NotNil(t, result.Server)
	assert.Equal(t, 7001, *result.Server.Port)
	assert.Equal(t, 10, *result.Server.ResponseDelayMs)
}

func TestLoadGlob_MissingInclude(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.yaml", "include:\n  - other.yaml\nstubs: []\n")

	_, err := LoadGlob(main)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadGlob_MissingBodyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "stubs.yaml", "stubs:\n  - url: /gone\n    bodyFile: gone.json\n")

	result, err := LoadGlob(path)
	require.NoError(t, err)
	assert.ErrorIs(t, result.BodyErrors, ErrBodySourceNotFound)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, 500, result.Responses[0].StatusCode)
	assert.Empty(t, result.Responses[0].Body)
}

func TestLoadGlob_InvalidFileFailsWholeLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "stubs:\n  - url: /a\n")
	writeFile(t, dir, "b.yaml", "stubs:\n  - nourl: true\n")

	_, err := LoadGlob(filepath.Join(dir, "*.yaml"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "b.yaml")
}

func TestGlobBase(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("stubs/api"), globBase("stubs/api/**/*.yaml"))
	assert.Equal(t, ".", globBase("stubs.yaml"))
}
