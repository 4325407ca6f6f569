package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for stub file loading and saving.
var (
	ErrFileNotFound     = errors.New("stub file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("stub file is empty")
)

// IsYAMLPath reports whether path has a YAML extension.
func IsYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ReadFile reads a stub file, mapping the common failures to this
// package's sentinel errors.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

// LoadFromFile reads and validates a single stub file. The format follows
// the extension: .yaml and .yml are YAML, anything else is JSON. Includes
// are not followed; see LoadGlob.
func LoadFromFile(path string) (*StubFile, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f *StubFile
	if IsYAMLPath(path) {
		f, err = ParseYAML(data)
	} else {
		f, err = ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseJSON validates and decodes a JSON stub file.
func ParseJSON(data []byte) (*StubFile, error) {
	if err := ValidateDocument(data, false); err != nil {
		return nil, err
	}

	var f StubFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseYAML validates and decodes a YAML stub file.
func ParseYAML(data []byte) (*StubFile, error) {
	if err := ValidateDocument(data, true); err != nil {
		return nil, err
	}

	var f StubFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ToJSON marshals f to indented JSON with a trailing newline.
func ToJSON(f *StubFile) ([]byte, error) {
	if f == nil {
		return nil, errors.New("stub file cannot be nil")
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ToYAML marshals f to YAML.
func ToYAML(f *StubFile) ([]byte, error) {
	if f == nil {
		return nil, errors.New("stub file cannot be nil")
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return data, nil
}

// SaveToFile writes f to path, choosing the format from the extension. The
// file is written to a temporary sibling and renamed into place.
func SaveToFile(path string, f *StubFile) error {
	var (
		data []byte
		err  error
	)
	if IsYAMLPath(path) {
		data, err = ToYAML(f)
	} else {
		data, err = ToJSON(f)
	}
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
