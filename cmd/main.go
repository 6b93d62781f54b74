package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

var rootCmd = &cobra.Command{
	Use:           "chatdemo-server",
	Short:         "In-memory chat demo server with captcha login and an auto-replying contact",
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket API (default)",
	RunE:  runServe,
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Print the seeded demo accounts",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(serveCmd, accountsCmd)
	rootCmd.Version = fmt.Sprintf("%s (%s, %s)", buildVersion, buildCommit, buildDate)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
