package cli

import (
	"github.com/getmockd/stubd/pkg/config"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema for stub files",
	Long: `Print the JSON schema (draft 2020-12) that stub files are validated against.

Point an editor's YAML or JSON language server at it for completion:

  stubd schema > stubfile.schema.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(config.Schema())
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
