// Package cli implements the staleweb-admin command-line tool.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "staleweb-admin",
	Short: "A CLI tool for administering the staleweb cache invalidation service.",
	Long: `staleweb-admin is a command-line interface for operational tasks on the
staleweb service, such as manually purging URLs from the edge cache.`,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
