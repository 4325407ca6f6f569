package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/admin"
	"github.com/getmockd/stubd/pkg/config"
)

// EnvAdminURL overrides the control API URL used by client commands.
const EnvAdminURL = "STUBD_ADMIN_URL"

var (
	adminURL      string
	clientTimeout time.Duration
)

// defaultAdminURL is the control API of a local stubd on the default port.
func defaultAdminURL() string {
	return "http://localhost:" + strconv.Itoa(config.DefaultAdminPort)
}

// resolveAdminURL picks --admin-url when given, then STUBD_ADMIN_URL, then
// the local default.
func resolveAdminURL(cmd *cobra.Command, lookupEnv func(string) (string, bool)) string {
	if f := cmd.Flag("admin-url"); f != nil && f.Changed {
		return adminURL
	}
	if v, ok := lookupEnv(EnvAdminURL); ok && v != "" {
		return v
	}
	return defaultAdminURL()
}

func newAdminClient(cmd *cobra.Command) *admin.Client {
	return admin.NewClient(resolveAdminURL(cmd, os.LookupEnv), admin.WithTimeout(clientTimeout))
}

// addClientFlags registers the flags shared by commands that talk to a
// running server.
func addClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&adminURL, "admin-url", defaultAdminURL(),
		fmt.Sprintf("Control API base URL (env %s)", EnvAdminURL))
	cmd.PersistentFlags().DurationVar(&clientTimeout, "timeout", admin.DefaultClientTimeout, "Timeout for each control API call")
}
