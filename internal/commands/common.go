package commands

import (
	"fmt"
	"net"
	"os"

	"smanager/internal/client"
	"smanager/internal/config"
	"smanager/internal/ui"
)

// ConfigPath is bound to the global --config flag; empty searches the
// default locations
var ConfigPath string

// GetCurrentVersion is set by main.go
var GetCurrentVersion = func() string { return "dev" }

func newLoader() *config.Loader {
	return config.NewLoader(ConfigPath)
}

// loadConfig loads the configuration or exits with the error printed
func loadConfig() *config.Config {
	cfg, err := newLoader().Load()
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}
	return cfg
}

func configFile() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	return newLoader().Path()
}

// clientFor dials the gateway described by cfg. Wildcard binds are
// reached over loopback.
func clientFor(cfg *config.Config) *client.Client {
	addr := cfg.ListenAddr()
	if host, port, err := net.SplitHostPort(addr); err == nil {
		if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
			addr = net.JoinHostPort("127.0.0.1", port)
		}
	}
	return client.New(addr, cfg.Auth.Token)
}

func fail(format string, args ...interface{}) {
	ui.PrintStatus("error", fmt.Sprintf(format, args...))
	os.Exit(1)
}
