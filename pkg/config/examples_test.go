package config

import (
	"path/filepath"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExampleStubFiles loads every stub file shipped under examples/ so a
// field rename cannot leave them silently broken.
func TestExampleStubFiles(t *testing.T) {
	root := filepath.Join("..", "..", "examples")
	files, err := doublestar.FilepathGlob(filepath.Join(root, "**", "*.{yaml,yml,json}"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no stub files found under %s", root)

	for _, path := range files {
		t.Run(filepath.ToSlash(path), func(t *testing.T) {
			data, err := ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, ValidateDocument(data, IsYAMLPath(path)))

			loaded, err := LoadGlob(path)
			require.NoError(t, err)
			assert.NoError(t, loaded.BodyErrors)
			assert.NotEmpty(t, loaded.Responses)

			cfg := DefaultServerConfiguration()
			cfg.Apply(loaded.Server)
			assert.NoError(t, cfg.Validate())
		})
	}
}
