package service

import (
	"testing"

	"smanager/internal/monitor"
)

var _ monitor.Notifier = SystemdNotifier{}

func TestSystemdNotifierWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	n := SystemdNotifier{}
	n.Ready()
	n.Status("serving on 127.0.0.1:25566")
	n.Watchdog()
	n.Stopping()
}
