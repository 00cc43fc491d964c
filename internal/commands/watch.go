package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"smanager/internal/client"
	"smanager/internal/ui"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live push stream in the terminal",
		Long: `Subscribe to the WebSocket stream of a running server and redraw on
every frame. Press q to quit.

Examples:
  smanager watch                        # Server from the local config
  smanager watch --addr 10.0.0.5:25566  # Another host, same token`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			c := clientFor(cfg)
			target := cfg.ListenAddr()
			if addr != "" {
				c = client.New(addr, cfg.Auth.Token)
				target = addr
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sub, err := ui.WithSpinnerResult("Connecting to "+target, func() (*client.Subscription, error) {
				return c.Subscribe(ctx)
			})
			if err != nil {
				fail("Failed to subscribe: %v", err)
			}
			defer sub.Close()

			final, err := tea.NewProgram(ui.NewWatchModel(target, sub)).Run()
			if err != nil {
				fail("Terminal error: %v", err)
			}
			if err := final.(ui.WatchModel).Err(); err != nil {
				fail("Stream ended: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "host:port of the server (defaults to the configured listen address)")
	return cmd
}
