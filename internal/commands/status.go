package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"smanager/internal/metrics"
	"smanager/internal/process"
	"smanager/internal/ui"
	"smanager/pkg/utils"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the server is running and its latest snapshot",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			ui.PrintHeader()

			ui.PrintSection("Server")
			running, pid, err := process.Check()
			switch {
			case err != nil:
				ui.PrintStatus("error", fmt.Sprintf("Cannot read PID file: %v", err))
			case running:
				ui.PrintStatus("success", fmt.Sprintf("Serving (PID %d)", pid))
			default:
				ui.PrintStatus("warning", "Not running")
			}
			ui.PrintList(map[string]string{
				"Config":    configFile(),
				"Listen":    cfg.ListenAddr(),
				"Interval":  cfg.SampleInterval().String(),
				"Broadcast": cfg.BroadcastInterval().String(),
				"Token":     utils.MaskSecret(cfg.Auth.Token),
				"Files":     filesStatus(cfg.Files.Enabled, cfg.Files.Root),
			})
			ui.PrintSectionEnd()

			if !running {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			snap, err := clientFor(cfg).Snapshot(ctx)
			if err != nil {
				ui.PrintStatus("error", fmt.Sprintf("Gateway did not answer: %v", err))
				return
			}
			ui.PrintSnapshot("Latest snapshot", snap)
		},
	}
}

func filesStatus(enabled bool, root string) string {
	if !enabled {
		return "disabled"
	}
	return utils.TruncateString(root, 48)
}

// NewSnapshotCmd creates the snapshot command
func NewSnapshotCmd() *cobra.Command {
	var asJSON, wait bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Pull one snapshot from the running server",
		Long: `Fetch the latest snapshot over HTTP, exactly as a pull client sees it.

Examples:
  smanager snapshot            # Render the snapshot
  smanager snapshot --json     # Print the raw document
  smanager snapshot --wait     # Retry until the first sample is published`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			c := clientFor(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			var snap *metrics.Snapshot
			var err error
			if wait {
				snap, err = c.WaitSnapshot(ctx, 250*time.Millisecond)
			} else {
				snap, err = c.Snapshot(ctx)
			}
			if err != nil {
				fail("Failed to fetch snapshot from %s: %v", cfg.ListenAddr(), err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				enc.Encode(snap)
				return
			}
			ui.PrintSnapshot("Snapshot "+time.UnixMilli(snap.Timestamp).Format(time.DateTime), snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the JSON document")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the first snapshot instead of failing")
	return cmd
}
