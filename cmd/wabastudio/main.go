package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/nebari-dev/wabastudio/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

// osExit is swapped out by tests.
var osExit = os.Exit

var rootCmd = &cobra.Command{
	Use:   "wabastudio",
	Short: "wabastudio - compose and submit WhatsApp message templates",
	Long:  `wabastudio runs the template composer API and works with template drafts offline.`,
	Example: `  # Run the API and the submission worker
  wabastudio serve

  # Check a draft file and print the request it would submit
  wabastudio compose check order_update.yaml
  wabastudio compose build order_update.yaml --connection 1a2b...

  # Compare two drafts
  wabastudio compose diff order_update.yaml order_update_v2.toml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "draft", Title: "Draft Commands:"},
		&cobra.Group{ID: "admin", Title: "Admin Commands:"},
	)

	composeCmd.GroupID = "draft"
	serveCmd.GroupID = "admin"
	userCmd.GroupID = "admin"

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		osExit(1)
	}
}
