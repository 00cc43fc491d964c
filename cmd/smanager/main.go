package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	constants "smanager/config"
	"smanager/internal/commands"
	"smanager/internal/ui"
)

// VERSION is set during build via ldflags
var VERSION string

func getCurrentVersion() string {
	version := VERSION
	if version == "" {
		if data, err := os.ReadFile("version.txt"); err == nil {
			version = strings.TrimSpace(string(data))
		}
	}
	if version == "" {
		return "dev"
	}
	return "v" + strings.TrimPrefix(version, "v")
}

func main() {
	commands.GetCurrentVersion = getCurrentVersion

	rootCmd := &cobra.Command{
		Use:                constants.APP_NAME,
		Short:              constants.APP_DESCRIPTION,
		SilenceUsage:       true,
		DisableSuggestions: true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintHeader()

			ui.PrintSection("Quick Start")
			ui.PrintList(map[string]string{
				"1. Create config": "smanager config init",
				"2. Set a token":   "smanager set token=<secret>",
				"3. Serve":         "smanager serve",
				"4. Watch":         "smanager watch",
			})
			ui.PrintSectionEnd()

			ui.PrintSection("Endpoints")
			ui.PrintList(map[string]string{
				constants.ROUTE_METRICS: "latest snapshot (JSON)",
				constants.ROUTE_HEALTH:  "liveness",
				constants.ROUTE_PUSH:    "WebSocket push, ?token=",
				"/":                     "dashboard",
			})
			ui.PrintSectionEnd()

			ui.PrintStatus("info", "Use 'smanager [command] --help' for detailed help")
		},
	}

	rootCmd.PersistentFlags().StringVar(&commands.ConfigPath, "config", "", "config file (default $HOME/.smanager/config.yaml)")

	rootCmd.AddCommand(
		commands.NewServeCmd(),
		commands.NewReloadCmd(),
		commands.NewStopCmd(),
		commands.NewStatusCmd(),
		commands.NewSnapshotCmd(),
		commands.NewWatchCmd(),
		commands.NewConfigCmd(),
		commands.NewSetCmd(),
		commands.NewServiceCmd(),
		commands.NewCleanupCmd(),
		commands.NewVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
