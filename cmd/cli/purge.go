package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	purgeEndpoint string
	purgeRenew    bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge URL [URL...]",
	Short: "Purge URLs from the edge cache",
	Long: `Purge asks a running staleweb service to invalidate the given URLs at the
edge cache. With --renew the pages are re-requested after invalidation so the
cache is repopulated immediately.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := json.Marshal(map[string]interface{}{
			"urls":  args,
			"renew": purgeRenew,
		})
		if err != nil {
			return err
		}

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Post(purgeEndpoint+"/api/v1/cache/purge",
			"application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("purge request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted {
			payload, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("purge rejected: %s: %s", resp.Status, string(payload))
		}

		fmt.Printf("Accepted purge of %d URL(s) (renew=%v)\n", len(args), purgeRenew)
		return nil
	},
}

func init() {
	purgeCmd.Flags().StringVar(&purgeEndpoint, "endpoint", "http://localhost:8090",
		"Base URL of the staleweb service")
	purgeCmd.Flags().BoolVar(&purgeRenew, "renew", false,
		"Re-request the pages after invalidation")
	rootCmd.AddCommand(purgeCmd)
}
