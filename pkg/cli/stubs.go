package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/cli/internal/output"
	"github.com/getmockd/stubd/pkg/config"
)

var stubsCmd = &cobra.Command{
	Use:   "stubs",
	Short: "Manage the stubs of a running stubd",
	Long: `Manage the stubs of a running stubd through its control API.

Changes apply immediately and are not written back to any stub file.`,
}

var stubsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered stubs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		stubs, err := newAdminClient(cmd).ListStubs(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), stubs)
		}
		if len(stubs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stubs registered")
			return nil
		}

		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(w, "URL\tSTATUS\tCONTENT-TYPE\tBODY")
		for _, s := range stubs {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.URL, s.StatusCode, s.ContentType, describeBody(s))
		}
		return w.Flush()
	},
}

var stubsGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Show the stub registered for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := newAdminClient(cmd).GetStub(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), entry)
		}
		data, err := config.ToYAML(&config.StubFile{Stubs: []config.StubEntry{*entry}})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var stubsAddOpts struct {
	status      int
	contentType string
	body        string
	headers     []string
	echo        bool
}

var stubsAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Register a stub, replacing any stub for the same URL",
	Example: `  stubd stubs add /users/1 --body '{"id": 1}'
  stubd stubs add /missing --status 404 -H 'X-Reason: gone'
  stubd stubs add /echo --echo`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry := config.StubEntry{
			URL:         args[0],
			StatusCode:  stubsAddOpts.status,
			ContentType: stubsAddOpts.contentType,
			Echo:        stubsAddOpts.echo,
		}
		if cmd.Flags().Changed("body") {
			body := stubsAddOpts.body
			entry.Body = &body
		}
		headers, err := parseHeaderFlags(stubsAddOpts.headers)
		if err != nil {
			return err
		}
		entry.Headers = headers

		stored, err := newAdminClient(cmd).RegisterStub(cmd.Context(), entry)
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), stored)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%d)\n", stored.URL, stored.StatusCode)
		return nil
	},
}

var stubsRemoveCmd = &cobra.Command{
	Use:     "rm <url>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove the stub registered for a URL",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAdminClient(cmd).DeleteStub(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

var stubsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stub",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := newAdminClient(cmd).ClearStubs(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stubs\n", n)
		return nil
	},
}

var stubsLoadCmd = &cobra.Command{
	Use:   "load <file|glob>",
	Short: "Replace every stub with those loaded from stub files",
	Long: `Load stub files locally, resolving includes and body files, and replace
every stub on the running server with the result.

The server blocks of the files are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadGlob(args[0])
		if err != nil {
			return err
		}
		if loaded.BodyErrors != nil {
			return fmt.Errorf("not loading stubs with unreadable body files: %w", loaded.BodyErrors)
		}

		file := &config.StubFile{Stubs: make([]config.StubEntry, 0, len(loaded.Responses))}
		seen := make(map[string]int, len(loaded.Responses))
		for _, r := range loaded.Responses {
			// Later files win, as they do when serving from the files.
			if i, dup := seen[r.URL]; dup {
				file.Stubs[i] = config.EntryFor(r)
				continue
			}
			seen[r.URL] = len(file.Stubs)
			file.Stubs = append(file.Stubs, config.EntryFor(r))
		}

		n, err := newAdminClient(cmd).ReplaceStubs(cmd.Context(), file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d stubs from %d files\n", n, len(loaded.Files))
		return nil
	},
}

// parseHeaderFlags turns "Name: value" flags into a map.
func parseHeaderFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(flags))
	for _, h := range flags {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func describeBody(s config.StubEntry) string {
	if s.Echo {
		return "(echo)"
	}
	if s.Body == nil || *s.Body == "" {
		return "-"
	}
	b := *s.Body
	if len(b) > 40 {
		b = b[:37] + "..."
	}
	return strconv.Quote(b)
}

func init() {
	stubsAddCmd.Flags().IntVarP(&stubsAddOpts.status, "status", "s", 0, "Status code (default 200)")
	stubsAddCmd.Flags().StringVarP(&stubsAddOpts.contentType, "content-type", "t", "", "Content-Type (default application/json;charset=utf-8)")
	stubsAddCmd.Flags().StringVarP(&stubsAddOpts.body, "body", "b", "", "Response body (default \"received message\")")
	stubsAddCmd.Flags().StringArrayVarP(&stubsAddOpts.headers, "header", "H", nil, "Extra response header as 'Name: value' (repeatable)")
	stubsAddCmd.Flags().BoolVar(&stubsAddOpts.echo, "echo", false, "Answer PUT and POST with the request body")

	stubsCmd.AddCommand(stubsListCmd, stubsGetCmd, stubsAddCmd, stubsRemoveCmd, stubsClearCmd, stubsLoadCmd)
	addClientFlags(stubsCmd)
	rootCmd.AddCommand(stubsCmd)
}
