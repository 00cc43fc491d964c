package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"smanager/internal/service"
	"smanager/internal/ui"
)

// NewServiceCmd creates the service command with subcommands
func NewServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage smanager as a system service",
		Long: `Install smanager as a background service (systemd on Linux, launchd on macOS).
The unit runs 'smanager serve' and is notified over sd_notify when ready.

Examples:
  smanager service install   # Install the unit
  smanager service start     # Start it
  smanager service status    # Show its state
  smanager service stop      # Stop it
  smanager service remove    # Uninstall it`,
	}

	cmd.AddCommand(newServiceActionCmd("install", "Install the service", func(s *service.Service) (string, error) {
		var args []string
		if ConfigPath != "" {
			abs, err := filepath.Abs(ConfigPath)
			if err != nil {
				return "", err
			}
			args = append(args, "--config", abs)
		}
		return s.Install(args...)
	}))
	cmd.AddCommand(newServiceActionCmd("remove", "Remove the service", (*service.Service).Remove))
	cmd.AddCommand(newServiceActionCmd("start", "Start the service", (*service.Service).Start))
	cmd.AddCommand(newServiceActionCmd("stop", "Stop the service", (*service.Service).Stop))
	cmd.AddCommand(newServiceActionCmd("status", "Show the service status", (*service.Service).Status))
	return cmd
}

func newServiceActionCmd(use, short string, action func(*service.Service) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			svc, err := service.New()
			if err != nil {
				fail("Failed to create service: %v", err)
			}

			status, err := action(svc)
			if err != nil {
				fail("Service %s failed: %v", use, err)
			}
			ui.PrintStatus("success", status)
		},
	}
}
