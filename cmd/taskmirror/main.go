// Command taskmirror runs the task mirroring service: a local task store
// kept in sync with Todoist through webhook ingestion and outbound
// mirroring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskmirror",
	Short: "Mirror a local task list against Todoist",
	Long: `taskmirror keeps a locally owned task store consistent with Todoist.

Inbound: Todoist webhook deliveries (item:added, item:updated,
item:completed) are re-fetched from the API and reconciled into the
local store. Outbound: local create/update operations are mirrored to
Todoist before they are persisted.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the taskmirror version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskmirror %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./taskmirror.yaml)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
