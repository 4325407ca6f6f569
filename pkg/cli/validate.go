package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/getmockd/stubd/pkg/cli/internal/output"
	"github.com/getmockd/stubd/pkg/config"
	"github.com/spf13/cobra"
)

var errValidationFailed = errors.New("validation failed")

// ValidateResult is the outcome for one file or glob argument.
type ValidateResult struct {
	Pattern string   `json:"pattern"`
	Valid   bool     `json:"valid"`
	Files   []string `json:"files,omitempty"`
	Stubs   int      `json:"stubs"`
	Errors  []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <file|glob>...",
	Short: "Validate stub files without starting the server",
	Long: `Validate stub files without starting the server.

This command checks:
  - YAML or JSON syntax
  - the stub file schema (see 'stubd schema')
  - duplicate URLs, status codes and server settings
  - that includes and body files exist`,
	Example: `  stubd validate stubs.yaml
  stubd validate 'stubs/**/*.yaml' extra.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results := make([]ValidateResult, 0, len(args))
		for _, pattern := range args {
			results = append(results, validatePattern(pattern))
		}

		if jsonOutput {
			if err := output.JSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
		} else {
			printValidateResults(cmd.OutOrStdout(), results)
		}

		for _, r := range results {
			if !r.Valid {
				return errValidationFailed
			}
		}
		return nil
	},
}

func validatePattern(pattern string) ValidateResult {
	res := ValidateResult{Pattern: pattern}

	loaded, err := config.LoadGlob(pattern)
	if err != nil {
		res.Errors = errorLines(err)
		return res
	}
	res.Files = loaded.Files
	res.Stubs = len(loaded.Responses)
	if loaded.BodyErrors != nil {
		res.Errors = errorLines(loaded.BodyErrors)
		return res
	}
	res.Valid = true
	return res
}

// errorLines flattens joined errors and validation issues into one line
// each.
func errorLines(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, errorLines(e)...)
		}
		return lines
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) && len(verr.Issues) > 1 {
		lines := make([]string, 0, len(verr.Issues))
		for _, issue := range verr.Issues {
			lines = append(lines, issue.String())
		}
		return lines
	}
	return []string{err.Error()}
}

func printValidateResults(w io.Writer, results []ValidateResult) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "ok    %s (%d files, %d stubs)\n", r.Pattern, len(r.Files), r.Stubs)
			continue
		}
		fmt.Fprintf(w, "FAIL  %s\n", r.Pattern)
		for _, line := range r.Errors {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
