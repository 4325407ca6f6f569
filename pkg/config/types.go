package config

import "fmt"

// CurrentVersion is the stub file format version.
const CurrentVersion = "1"

// StubFile is the top-level document of a stub file.
type StubFile struct {
	Version string          `json:"version,omitempty" yaml:"version,omitempty"`
	Server  *ServerSettings `json:"server,omitempty" yaml:"server,omitempty"`

	// Include lists further stub files, as paths or glob patterns relative
	// to this file. Included stubs are registered before this file's own.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`

	Stubs []StubEntry `json:"stubs" yaml:"stubs"`
}

// StubEntry declares one registered response.
type StubEntry struct {
	URL         string            `json:"url" yaml:"url"`
	StatusCode  int               `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	ContentType string            `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Body is an inline body. Nil means unset, which is different from an
	// explicitly empty body.
	Body *string `json:"body,omitempty" yaml:"body,omitempty"`

	// BodyFile names a file holding the body. Mutually exclusive with Body.
	BodyFile string `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`

	// Echo makes PUT and POST requests replace the body with their own.
	Echo bool `json:"echo,omitempty" yaml:"echo,omitempty"`
}

// Issue is a single problem found in a document.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError collects every issue found in a document.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "invalid stub file"
	case 1:
		return "invalid stub file: " + e.Issues[0].String()
	}
	msg := fmt.Sprintf("invalid stub file (%d issues)", len(e.Issues))
	for _, i := range e.Issues {
		msg += "\n  " + i.String()
	}
	return msg
}

func (e *ValidationError) add(path, format string, args ...any) {
	e.Issues = append(e.Issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// Validate performs the checks the schema cannot express. Schema violations
// are reported by ValidateDocument.
func (f *StubFile) Validate() error {
	verr := &ValidationError{}

	if f.Version != "" && f.Version != CurrentVersion {
		verr.add("version", "unsupported version %q, expected %q", f.Version, CurrentVersion)
	}
	if f.Server != nil {
		f.Server.validate("server", verr)
	}

	seen := make(map[string]int, len(f.Stubs))
	for i, s := range f.Stubs {
		path := fmt.Sprintf("stubs[%d]", i)
		if s.URL == "" {
			verr.add(path+".url", "required")
		} else if prev, dup := seen[s.URL]; dup {
			verr.add(path+".url", "%q is already declared by stubs[%d]", s.URL, prev)
		} else {
			seen[s.URL] = i
		}
		if s.StatusCode != 0 && (s.StatusCode < 100 || s.StatusCode > 599) {
			verr.add(path+".statusCode", "%d is not a valid status code", s.StatusCode)
		}
		if s.Body != nil && s.BodyFile != "" {
			verr.add(path, "body and bodyFile are mutually exclusive")
		}
	}

	return verr.orNil()
}
