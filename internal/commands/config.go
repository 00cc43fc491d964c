package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"smanager/internal/config"
	"smanager/internal/ui"
	"smanager/pkg/utils"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
		Long: `Inspect the effective configuration (file, environment and defaults).

Environment variables override the file: SMANAGER_WEB_PORT, SMANAGER_AUTH_TOKEN,
SMANAGER_MONITOR_INTERVALMILLIS, ...

Examples:
  smanager config show          # Effective settings
  smanager config show --yaml   # Same, as YAML
  smanager config init          # Write a default config.yaml if none exists
  smanager config path          # Print the config file location`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()

			if asYAML {
				data, err := yaml.Marshal(cfg)
				if err != nil {
					fail("Failed to encode configuration: %v", err)
				}
				os.Stdout.Write(data)
				return
			}

			ui.PrintSection("Monitor")
			ui.PrintKeyValue("Interval", cfg.SampleInterval().String())
			ui.PrintSectionEnd()

			ui.PrintSection("Web")
			ui.PrintList(map[string]string{
				"Listen":       cfg.ListenAddr(),
				"Broadcast":    cfg.BroadcastInterval().String(),
				"Static dir":   orDefault(cfg.Web.StaticDir, "(embedded)"),
				"Self metrics": strconv.FormatBool(cfg.Web.SelfMetrics),
				"Token":        utils.MaskSecret(cfg.Auth.Token),
			})
			ui.PrintSectionEnd()

			ui.PrintSection("Files")
			ui.PrintKeyValue("Enabled", strconv.FormatBool(cfg.Files.Enabled))
			ui.PrintKeyValue("Root", orDefault(cfg.Files.Root, "(unset)"))
			ui.PrintSectionEnd()

			ui.PrintSection("Log")
			ui.PrintKeyValue("Level", cfg.Log.Level)
			ui.PrintKeyValue("File", cfg.Log.File)
			ui.PrintSectionEnd()
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Run: func(cmd *cobra.Command, args []string) {
			path := configFile()
			created, err := config.EnsureDefault(path)
			if err != nil {
				fail("Failed to write %s: %v", path, err)
			}
			if created {
				ui.PrintStatus("success", "Created "+path)
				return
			}
			ui.PrintStatus("info", path+" already exists")
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(configFile())
		},
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
