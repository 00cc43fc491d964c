package metrics

import (
	"math"
	"testing"
)

func TestLoadSince(t *testing.T) {
	prev := CPUTicks{User: 10, System: 10, Idle: 80}

	cur := CPUTicks{User: 15, System: 15, Idle: 170}
	if got := cur.LoadSince(prev); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("Expected 0.1, got %v", got)
	}

	if got := prev.LoadSince(prev); got != 0 {
		t.Errorf("Expected 0 for identical ticks, got %v", got)
	}

	// iowait counts as idle
	cur = CPUTicks{User: 10, System: 10, Idle: 80, Iowait: 50}
	if got := cur.LoadSince(prev); got != 0 {
		t.Errorf("Expected 0 when only iowait grew, got %v", got)
	}
}

func TestLoadSinceIsClamped(t *testing.T) {
	prev := CPUTicks{User: 10, Idle: 100}
	cur := CPUTicks{User: 20, Idle: 50}

	got := cur.LoadSince(prev)
	if got < 0 || got > 1 {
		t.Errorf("Expected value in [0,1], got %v", got)
	}
}

func TestIsZero(t *testing.T) {
	if !(CPUTicks{}).IsZero() {
		t.Error("Expected zero ticks")
	}
	if (CPUTicks{Idle: 1}).IsZero() {
		t.Error("Expected non-zero ticks")
	}
}

func TestIsPhysicalDisk(t *testing.T) {
	physical := []string{"sda", "nvme0n1", "vdb", "xvda", "mmcblk0", "disk0"}
	for _, d := range physical {
		if !isPhysicalDisk(d) {
			t.Errorf("Expected %s to be a physical disk", d)
		}
	}

	virtual := []string{"sda1", "nvme0n1p2", "vdb3", "xvda1", "mmcblk0p1", "loop0", "dm-0", "sr0", "zram0"}
	for _, d := range virtual {
		if isPhysicalDisk(d) {
			t.Errorf("Expected %s to be skipped", d)
		}
	}
}

func TestSnapshotEncode(t *testing.T) {
	var nilSnap *Snapshot
	if string(nilSnap.Encode()) != "{}" {
		t.Errorf("Expected {} for nil snapshot, got %s", nilSnap.Encode())
	}

	bad := &Snapshot{CPUUsage: math.NaN()}
	if string(bad.Encode()) != "{}" {
		t.Errorf("Expected {} for unencodable snapshot, got %s", bad.Encode())
	}

	snap := &Snapshot{MemoryTotalBytes: 100, MemoryUsedBytes: 25, DiskTotalBytes: 200, DiskFreeBytes: 50}
	if snap.MemoryUsedPercent() != 25 {
		t.Errorf("Expected 25%% memory, got %v", snap.MemoryUsedPercent())
	}
	if snap.DiskUsedPercent() != 75 {
		t.Errorf("Expected 75%% disk, got %v", snap.DiskUsedPercent())
	}
}
