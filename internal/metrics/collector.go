package metrics

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// partitionPattern matches partitions of whole disks so their bytes are not
// counted twice (sda1, vdb2, xvda1, nvme0n1p1, mmcblk0p2).
var partitionPattern = regexp.MustCompile(`^(?:(?:[shv]d|xvd)[a-z]+\d+|(?:nvme\d+n\d+|mmcblk\d+)p\d+)$`)

// HostSource reads counters from the local machine through gopsutil
type HostSource struct{}

// NewHostSource creates a Source for the local machine
func NewHostSource() *HostSource {
	return &HostSource{}
}

// CPUTicks returns the aggregate CPU time vector
func (h *HostSource) CPUTicks(ctx context.Context) (CPUTicks, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return CPUTicks{}, fmt.Errorf("failed to get CPU times: %w", err)
	}
	if len(times) == 0 {
		return CPUTicks{}, errors.New("no CPU time data available")
	}
	return ticksFromTimes(times[0]), nil
}

// LoadAverage returns the 1, 5 and 15 minute load averages
func (h *HostSource) LoadAverage(ctx context.Context) ([3]float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return [3]float64{}, fmt.Errorf("failed to get load average: %w", err)
	}
	if avg == nil {
		return [3]float64{}, nil
	}
	return [3]float64{avg.Load1, avg.Load5, avg.Load15}, nil
}

// Memory returns total and available physical memory
func (h *HostSource) Memory(ctx context.Context) (MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("failed to get memory info: %w", err)
	}
	return MemoryInfo{Total: vm.Total, Available: vm.Available}, nil
}

// DiskCounters returns cumulative read/write bytes per physical disk
func (h *HostSource) DiskCounters(ctx context.Context) ([]DiskCounter, error) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get IO counters: %w", err)
	}

	result := make([]DiskCounter, 0, len(counters))
	for device, stat := range counters {
		if !isPhysicalDisk(device) {
			continue
		}
		result = append(result, DiskCounter{
			Device:     device,
			ReadBytes:  stat.ReadBytes,
			WriteBytes: stat.WriteBytes,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Device < result[j].Device })
	return result, nil
}

// NetCounters returns cumulative byte counters per non-loopback interface
func (h *HostSource) NetCounters(ctx context.Context) ([]NetCounter, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get network counters: %w", err)
	}

	result := make([]NetCounter, 0, len(counters))
	for _, stat := range counters {
		if isLoopback(stat.Name) {
			continue
		}
		result = append(result, NetCounter{
			Interface: stat.Name,
			BytesRecv: stat.BytesRecv,
			BytesSent: stat.BytesSent,
		})
	}
	return result, nil
}

// FileStores returns the capacity of each mounted device, one entry per device
func (h *HostSource) FileStores(ctx context.Context) ([]FileStore, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get partitions: %w", err)
	}

	seen := make(map[string]bool, len(partitions))
	var stores []FileStore
	var lastErr error

	for _, p := range partitions {
		if seen[p.Device] {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			lastErr = err
			continue
		}
		seen[p.Device] = true
		stores = append(stores, FileStore{
			Mountpoint: p.Mountpoint,
			Total:      usage.Total,
			Free:       usage.Free,
		})
	}

	if len(stores) == 0 && lastErr != nil {
		return nil, fmt.Errorf("failed to get disk usage: %w", lastErr)
	}
	return stores, nil
}

func isPhysicalDisk(device string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "sr", "fd", "dm-"} {
		if strings.HasPrefix(device, prefix) {
			return false
		}
	}
	return !partitionPattern.MatchString(device)
}

func isLoopback(name string) bool {
	return name == "lo" || strings.HasPrefix(name, "lo0") || strings.HasPrefix(strings.ToLower(name), "loopback")
}
