package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	constants "smanager/config"
	"smanager/internal/process"
	"smanager/internal/ui"
)

// NewReloadCmd creates the reload command
func NewReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Apply the configuration file to the running server",
		Long: `Signal the running 'smanager serve' to re-read its configuration.
The sampling interval, listen address and token change without a restart.
If the new address cannot be bound the previous one stays in service.

Examples:
  smanager set port=8080 && smanager reload`,
		Run: func(cmd *cobra.Command, args []string) {
			pid, err := process.SignalReload()
			if errors.Is(err, process.ErrNotRunning) {
				ui.PrintStatus("warning", "smanager is not running")
				return
			}
			if err != nil {
				fail("Failed to reload: %v", err)
			}
			ui.PrintStatus("success", fmt.Sprintf("Reload requested (PID %d)", pid))
			if cfg, err := newLoader().Load(); err == nil && cfg.Log.File != "" {
				ui.PrintStatus("info", "Check the log for the outcome: "+cfg.Log.File)
			}
		},
	}
}

// NewStopCmd creates the stop command
func NewStopCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running server",
		Run: func(cmd *cobra.Command, args []string) {
			pid, err := process.SignalStop(timeout)
			if errors.Is(err, process.ErrNotRunning) {
				ui.PrintStatus("warning", "smanager is not running")
				return
			}
			if err != nil {
				fail("Failed to stop: %v", err)
			}
			ui.PrintStatus("success", fmt.Sprintf("Stopped (PID %d)", pid))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*constants.SHUTDOWN_TIMEOUT*time.Second, "How long to wait for shutdown")
	return cmd
}

// NewCleanupCmd creates the cleanup command
func NewCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove a PID file left behind by a crashed server",
		Run: func(cmd *cobra.Command, args []string) {
			if err := process.CleanupStale(); err != nil {
				fail("%v", err)
			}
			ui.PrintStatus("success", "No stale PID file at "+process.PIDFilePath())
		},
	}
}
