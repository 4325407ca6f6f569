package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed stubfile.schema.json
var schemaJSON []byte

const schemaURL = "stubfile.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	errSchema      error
)

func stubFileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			errSchema = fmt.Errorf("adding stub file schema: %w", err)
			return
		}
		compiledSchema, errSchema = compiler.Compile(schemaURL)
	})
	return compiledSchema, errSchema
}

// Schema returns the JSON schema stub files are validated against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// ValidateDocument checks raw stub file content against the schema. isYAML
// selects the decoder. Syntax errors wrap ErrInvalidYAML or ErrInvalidJSON;
// schema violations are returned as *ValidationError.
func ValidateDocument(data []byte, isYAML bool) error {
	doc, err := decodeGeneric(data, isYAML)
	if err != nil {
		return err
	}

	schema, err := stubFileSchema()
	if err != nil {
		return err
	}

	if err := schema.Validate(doc); err != nil {
		var vErr *jsonschema.ValidationError
		if !errors.As(err, &vErr) {
			return fmt.Errorf("schema validation: %w", err)
		}
		verr := &ValidationError{}
		collectSchemaIssues(vErr, verr)
		return verr
	}
	return nil
}

// decodeGeneric decodes data into the plain JSON value model the validator
// understands. YAML goes through a JSON round trip so numbers and maps have
// consistent types.
func decodeGeneric(data []byte, isYAML bool) (any, error) {
	if isYAML {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return doc, nil
}

func collectSchemaIssues(err *jsonschema.ValidationError, verr *ValidationError) {
	if len(err.Causes) == 0 {
		verr.Issues = append(verr.Issues, Issue{
			Path:    pointerToPath(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaIssues(cause, verr)
	}
}

// pointerToPath turns a JSON pointer such as /stubs/0/url into stubs[0].url.
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for i, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		switch {
		case isIndex(part):
			b.WriteString("[" + part + "]")
		case i == 0:
			b.WriteString(part)
		default:
			b.WriteString("." + part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
