package commands

import (
	"context"
	"net"
	"testing"
	"time"

	"smanager/internal/config"
	"smanager/internal/logger"
	"smanager/internal/metrics"
	"smanager/internal/server"
)

func TestWatchdogInterval(t *testing.T) {
	tests := []struct {
		env  string
		want time.Duration
	}{
		{"", 0},
		{"garbage", 0},
		{"-5", 0},
		{"20000000", 10 * time.Second},
	}

	for _, tt := range tests {
		t.Setenv("WATCHDOG_USEC", tt.env)
		if got := watchdogInterval(); got != tt.want {
			t.Errorf("WATCHDOG_USEC=%q: expected %v, got %v", tt.env, tt.want, got)
		}
	}
}

func TestClientForWildcardBind(t *testing.T) {
	gw := server.New(metrics.NewStore(), server.Options{
		Addr:   "127.0.0.1:0",
		Token:  "secret",
		Logger: logger.Discard(),
	})
	if err := gw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer gw.Stop(context.Background())

	cfg := config.Default()
	cfg.Web.Bind = "0.0.0.0"
	cfg.Web.Port = gw.Addr().(*net.TCPAddr).Port
	cfg.Auth.Token = "secret"

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := clientFor(cfg).Health(ctx); err != nil {
		t.Errorf("Expected health through loopback, got %v", err)
	}
}

func TestSmallHelpers(t *testing.T) {
	if got := orDefault("", "none"); got != "none" {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := orDefault("x", "none"); got != "x" {
		t.Errorf("Expected value, got %q", got)
	}
	if got := filesStatus(false, "/srv"); got != "disabled" {
		t.Errorf("Expected disabled, got %q", got)
	}
	if got := filesStatus(true, "/srv"); got != "/srv" {
		t.Errorf("Expected root, got %q", got)
	}
}

func TestServeCommandSurface(t *testing.T) {
	cmd := NewServeCmd()
	if !cmd.HasAlias("daemon") {
		t.Error("Expected serve to answer to daemon")
	}
	if cmd.Flags().Lookup("watch-config") == nil {
		t.Error("Expected --watch-config flag")
	}
	if NewStopCmd().Flags().Lookup("timeout") == nil {
		t.Error("Expected --timeout flag on stop")
	}
}
