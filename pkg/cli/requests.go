package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/admin"
	"github.com/getmockd/stubd/pkg/cli/internal/output"
)

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"logs"},
	Short:   "Inspect the request journal of a running stubd",
}

var requestsListOpts struct {
	method    string
	url       string
	status    int
	matched   bool
	unmatched bool
	limit     int
	offset    int
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled requests, newest first",
	Example: `  stubd requests list --method POST
  stubd requests list --url /users --limit 5
  stubd requests list --unmatched`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if requestsListOpts.matched && requestsListOpts.unmatched {
			return fmt.Errorf("--matched and --unmatched are mutually exclusive")
		}
		q := admin.RequestQuery{
			Method: requestsListOpts.method,
			URL:    requestsListOpts.url,
			Status: requestsListOpts.status,
			Limit:  requestsListOpts.limit,
			Offset: requestsListOpts.offset,
		}
		if requestsListOpts.matched || requestsListOpts.unmatched {
			m := requestsListOpts.matched
			q.Matched = &m
		}

		list, err := newAdminClient(cmd).ListRequests(cmd.Context(), q)
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), list)
		}
		if len(list.Requests) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded")
			return nil
		}

		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(w, "TIME\tMETHOD\tURL\tSTATUS\tMATCHED\tDURATION")
		for _, e := range list.Requests {
			status := fmt.Sprintf("%d", e.ResponseStatus)
			if e.Error != "" {
				status = "error"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%dms\n",
				e.Timestamp.Format("15:04:05.000"), e.Method, e.URL, status, e.Matched, e.DurationMs)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d requests\n", list.Count, list.Total)
		return nil
	},
}

var requestsLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recent request the server parsed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		last, err := newAdminClient(cmd).LastRequest(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), last)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", last.Method, last.URL)
		printHeaders(out, "  ", last.Headers)
		if last.Body != "" {
			fmt.Fprintf(out, "\n%s\n", last.Body)
		}
		return nil
	},
}

var requestsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the request journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := newAdminClient(cmd).ClearRequests(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Request journal cleared")
		return nil
	},
}

// printHeaders writes headers sorted by name, one value per line.
func printHeaders(w io.Writer, indent string, headers map[string][]string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range headers[name] {
			fmt.Fprintf(w, "%s%s: %s\n", indent, name, v)
		}
	}
}

func init() {
	f := requestsListCmd.Flags()
	f.StringVarP(&requestsListOpts.method, "method", "m", "", "Only requests with this method")
	f.StringVarP(&requestsListOpts.url, "url", "u", "", "Only requests whose URL starts with this prefix")
	f.IntVarP(&requestsListOpts.status, "status", "s", 0, "Only requests answered with this status code")
	f.BoolVar(&requestsListOpts.matched, "matched", false, "Only requests a registered stub answered")
	f.BoolVar(&requestsListOpts.unmatched, "unmatched", false, "Only requests no registered stub answered")
	f.IntVarP(&requestsListOpts.limit, "limit", "n", 0, "Maximum number of requests to show")
	f.IntVar(&requestsListOpts.offset, "offset", 0, "Number of requests to skip")

	requestsCmd.AddCommand(requestsListCmd, requestsLastCmd, requestsClearCmd)
	addClientFlags(requestsCmd)
	rootCmd.AddCommand(requestsCmd)
}
