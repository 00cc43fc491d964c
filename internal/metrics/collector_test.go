package metrics

import (
	"context"
	"testing"
	"time"
)

func TestHostSourceSample(t *testing.T) {
	src := NewHostSource()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m, err := src.Memory(ctx)
	if err != nil {
		t.Skipf("memory info unavailable on this host: %v", err)
	}
	if m.Total == 0 {
		t.Error("Expected non-zero total memory")
	}

	nets, err := src.NetCounters(ctx)
	if err != nil {
		t.Skipf("network counters unavailable on this host: %v", err)
	}
	for _, n := range nets {
		if isLoopback(n.Interface) {
			t.Errorf("Loopback interface %s should be skipped", n.Interface)
		}
	}

	s := NewSampler(src, WithReadTimeout(2*time.Second))
	snap := s.Sample(ctx)
	if snap.MemoryUsedBytes+snap.MemoryFreeBytes != snap.MemoryTotalBytes {
		t.Errorf("used+free != total: %d+%d != %d", snap.MemoryUsedBytes, snap.MemoryFreeBytes, snap.MemoryTotalBytes)
	}
}
