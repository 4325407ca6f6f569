package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/spf13/cobra"
)

var initOpts struct {
	output string
	force  bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter stub file",
	Long: `Create a starter stub file with a few example stubs.

The format follows the file extension: .yaml and .yml write YAML, anything
else writes JSON.`,
	Example: `  # Create stubs.yaml
  stubd init

  # Create a JSON stub file, replacing any existing one
  stubd init -o stubs.json --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(initOpts.output); err == nil {
			if !initOpts.force {
				return fmt.Errorf("file already exists: %s\n\nUse --force to overwrite", initOpts.output)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		if err := config.SaveToFile(initOpts.output, starterStubFile()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", initOpts.output)
		fmt.Fprintf(cmd.OutOrStdout(), "Start the server with: stubd serve --config %s\n", initOpts.output)
		return nil
	},
}

func starterStubFile() *config.StubFile {
	hello := `{"message": "hello"}`
	empty := ""
	return &config.StubFile{
		Version: config.CurrentVersion,
		Stubs: []config.StubEntry{
			{
				URL:        "/hello",
				StatusCode: 200,
				Body:       &hello,
			},
			{
				URL:         "/health",
				StatusCode:  204,
				ContentType: "text/plain",
				Body:        &empty,
			},
			{
				URL:  "/echo",
				Echo: true,
			},
			{
				URL:        "/missing",
				StatusCode: 404,
				Headers:    map[string]string{"X-Stub": "missing"},
			},
		},
	}
}

func init() {
	initCmd.Flags().StringVarP(&initOpts.output, "output", "o", "stubs.yaml", "Output filename")
	initCmd.Flags().BoolVar(&initOpts.force, "force", false, "Overwrite existing file")
	rootCmd.AddCommand(initCmd)
}
