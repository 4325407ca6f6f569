package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stubd",
	Short: "stubd is a minimal HTTP stub server for tests",
	Long: `stubd answers HTTP/1.1 requests with canned responses keyed by exact URL.

Each connection carries one request and one response, handled one at a time.
Stubs come from YAML or JSON stub files, or are registered at runtime through
the control API.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Main runs the root command against os.Args and returns the process exit
// code.
func Main() int {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the CLI and exits the process. This is called by main.main().
func Execute() {
	os.Exit(Main())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
