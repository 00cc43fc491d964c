package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smanager/internal/config"
	"smanager/internal/process"
	"smanager/internal/ui"
)

// NewSetCmd creates the set command
func NewSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Change configuration values",
		Long: `Update one or more keys in the config file.
Run 'smanager reload' afterwards to apply them to a running server.

Supported keys (full key or alias):
  • monitor.intervalMillis  interval    - sampling period in milliseconds
  • web.port                port        - listen port (1-65535)
  • web.bind                bind        - listen host, empty for all interfaces
  • web.broadcastMillis     broadcast   - push cadence in milliseconds
  • web.staticDir           static      - directory served instead of the embedded UI
  • web.selfMetrics         selfmetrics - expose /api/selfmetrics
  • auth.token              token       - shared token, empty disables auth
  • files.enabled           files       - enable /api/files
  • files.root              root        - absolute root for /api/files
  • log.level               loglevel    - debug, info, warn, error
  • log.file                logfile     - log file path

Examples:
  smanager set interval=500
  smanager set port=8080 token=s3cret`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := configFile()
			cfg, err := newLoader().Load()
			if err != nil {
				ui.PrintStatus("warning", fmt.Sprintf("Current configuration is invalid (%v), starting from defaults", err))
				cfg = config.Default()
			}

			changed := 0
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					ui.PrintStatus("error", "Invalid format: "+arg+" (expected key=value)")
					continue
				}
				if err := cfg.Set(key, value); err != nil {
					ui.PrintStatus("error", err.Error())
					continue
				}
				ui.PrintStatus("success", fmt.Sprintf("%s = %s", key, value))
				changed++
			}

			if changed == 0 {
				fail("Nothing changed")
			}
			if err := cfg.Validate(); err != nil {
				fail("Refusing to save: %v", err)
			}
			if err := config.SaveConfig(path, cfg); err != nil {
				fail("Failed to save %s: %v", path, err)
			}
			ui.PrintStatus("success", "Saved "+path)

			if running, _, _ := process.Check(); running {
				ui.PrintStatus("info", "Run 'smanager reload' to apply")
			}
		},
	}
}
