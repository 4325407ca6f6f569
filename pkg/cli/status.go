package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/cli/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running stubd",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := newAdminClient(cmd)
		st, err := client.Status(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), st)
		}

		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintf(w, "Status:\t%s\n", st.Status)
		fmt.Fprintf(w, "Port:\t%d\n", st.Port)
		fmt.Fprintf(w, "Uptime:\t%s\n", time.Duration(st.UptimeSeconds)*time.Second)
		fmt.Fprintf(w, "Stubs:\t%d\n", st.StubCount)
		fmt.Fprintf(w, "Served:\t%d\n", st.ServedCount)
		fmt.Fprintf(w, "Journal:\t%d\n", st.JournalCount)
		fmt.Fprintf(w, "Control API:\t%s\n", client.BaseURL())
		return w.Flush()
	},
}

func init() {
	addClientFlags(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
