package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/admin"
	"github.com/getmockd/stubd/pkg/cli/internal/output"
)

var settingsOpts struct {
	readTimeoutMs   int
	responseDelayMs int
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the timing settings of a running stubd",
	Long: `Show the read timeout and response delay of a running stubd.

With --read-timeout or --delay the settings are changed first. New values
apply to connections accepted afterwards.`,
	Example: `  stubd settings
  stubd settings --delay 250
  stubd settings --read-timeout 0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := newAdminClient(cmd)

		var req admin.SettingsRequest
		if cmd.Flags().Changed("read-timeout") {
			req.ReadTimeoutMs = &settingsOpts.readTimeoutMs
		}
		if cmd.Flags().Changed("delay") {
			req.ResponseDelayMs = &settingsOpts.responseDelayMs
		}

		var (
			st  *admin.SettingsResponse
			err error
		)
		if req.ReadTimeoutMs != nil || req.ResponseDelayMs != nil {
			st, err = client.UpdateSettings(cmd.Context(), req)
		} else {
			st, err = client.Settings(cmd.Context())
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), st)
		}
		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintf(w, "Read timeout:\t%dms\n", st.ReadTimeoutMs)
		fmt.Fprintf(w, "Response delay:\t%dms\n", st.ResponseDelayMs)
		return w.Flush()
	},
}

func init() {
	settingsCmd.Flags().IntVar(&settingsOpts.readTimeoutMs, "read-timeout", 0, "Read timeout in milliseconds (0 disables it)")
	settingsCmd.Flags().IntVar(&settingsOpts.responseDelayMs, "delay", 0, "Response delay in milliseconds")
	addClientFlags(settingsCmd)
	rootCmd.AddCommand(settingsCmd)
}
