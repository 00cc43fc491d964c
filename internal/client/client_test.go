package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"smanager/internal/logger"
	"smanager/internal/metrics"
	"smanager/internal/server"
)

func startGateway(t *testing.T, store *metrics.Store, token string) string {
	t.Helper()
	g := server.New(store, server.Options{
		Addr:              "127.0.0.1:0",
		Token:             token,
		BroadcastInterval: 50 * time.Millisecond,
		Logger:            logger.Discard(),
	})
	if err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { g.Stop(context.Background()) })
	return g.Addr().String()
}

func TestSnapshotAndHealth(t *testing.T) {
	store := metrics.NewStore()
	addr := startGateway(t, store, "T")
	ctx := context.Background()

	if _, err := New(addr, "T").Snapshot(ctx); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady before publish, got %v", err)
	}

	store.Publish(&metrics.Snapshot{MemoryTotalBytes: 10, MemoryFreeBytes: 10, Timestamp: 42})

	snap, err := New(addr, "T").Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Timestamp != 42 || snap.MemoryTotalBytes != 10 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}

	if _, err := New(addr, "wrong").Snapshot(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if err := New(addr, "T").Health(ctx); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}

func TestWaitSnapshot(t *testing.T) {
	store := metrics.NewStore()
	addr := startGateway(t, store, "")

	go func() {
		time.Sleep(100 * time.Millisecond)
		store.Publish(&metrics.Snapshot{Timestamp: 7})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	snap, err := New(addr, "").WaitSnapshot(ctx, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitSnapshot failed: %v", err)
	}
	if snap.Timestamp != 7 {
		t.Errorf("Expected timestamp 7, got %d", snap.Timestamp)
	}
}

func TestSubscribe(t *testing.T) {
	store := metrics.NewStore()
	store.Publish(&metrics.Snapshot{CPUUsage: 0.5, Timestamp: 99})
	addr := startGateway(t, store, "T")
	ctx := context.Background()

	if _, err := New(addr, "wrong").Subscribe(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}

	sub, err := New(addr, "T").Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	snap, err := sub.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if snap.Timestamp != 99 || snap.CPUUsage != 0.5 {
		t.Errorf("Unexpected frame %+v", snap)
	}
}

func TestBindAllAddressUsesLoopback(t *testing.T) {
	c := New(":25566", "")
	if c.base.Host != "127.0.0.1:25566" {
		t.Errorf("Expected loopback host, got %s", c.base.Host)
	}
}
