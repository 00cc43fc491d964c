package metrics

import (
	"context"
	"encoding/json"
)

// Snapshot is one immutable measurement of host resource state.
// The JSON field names are the wire document served to clients.
type Snapshot struct {
	MemoryTotalBytes uint64 `json:"memoryTotalBytes"`
	MemoryUsedBytes  uint64 `json:"memoryUsedBytes"`
	MemoryFreeBytes  uint64 `json:"memoryFreeBytes"`

	CPUUsage          float64    `json:"cpuUsage"`          // fraction in [0,1]
	SystemLoadAverage [3]float64 `json:"systemLoadAverage"` // 1, 5, 15 minutes

	DiskTotalBytes       uint64  `json:"diskTotalBytes"`
	DiskFreeBytes        uint64  `json:"diskFreeBytes"`
	DiskReadBytesPerSec  float64 `json:"diskReadBytesPerSec"`
	DiskWriteBytesPerSec float64 `json:"diskWriteBytesPerSec"`

	NetUpBytesPerSec   float64 `json:"netUpBytesPerSec"`
	NetDownBytesPerSec float64 `json:"netDownBytesPerSec"`

	Timestamp int64 `json:"timestamp"` // epoch milliseconds
}

// emptyDocument is served when a snapshot cannot be encoded
var emptyDocument = []byte("{}")

// Encode serializes the snapshot. It never fails: an unencodable or nil
// snapshot yields "{}".
func (s *Snapshot) Encode() []byte {
	if s == nil {
		return emptyDocument
	}
	data, err := json.Marshal(s)
	if err != nil {
		return emptyDocument
	}
	return data
}

// MemoryUsedPercent returns used memory as a percentage of total
func (s *Snapshot) MemoryUsedPercent() float64 {
	return percent(s.MemoryUsedBytes, s.MemoryTotalBytes)
}

// DiskUsedPercent returns used capacity as a percentage of total
func (s *Snapshot) DiskUsedPercent() float64 {
	if s.DiskFreeBytes > s.DiskTotalBytes {
		return 0
	}
	return percent(s.DiskTotalBytes-s.DiskFreeBytes, s.DiskTotalBytes)
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// MemoryInfo is the point-in-time memory gauge
type MemoryInfo struct {
	Total     uint64
	Available uint64
}

// DiskCounter holds cumulative byte counters for one block device
type DiskCounter struct {
	Device     string
	ReadBytes  uint64
	WriteBytes uint64
}

// NetCounter holds cumulative byte counters for one interface
type NetCounter struct {
	Interface string
	BytesRecv uint64
	BytesSent uint64
}

// FileStore is the capacity of one mounted filesystem
type FileStore struct {
	Mountpoint string
	Total      uint64
	Free       uint64
}

// Source reads current cumulative counters and gauges from the OS.
// Implementations must be safe to call from one goroutine at a time.
type Source interface {
	CPUTicks(ctx context.Context) (CPUTicks, error)
	LoadAverage(ctx context.Context) ([3]float64, error)
	Memory(ctx context.Context) (MemoryInfo, error)
	DiskCounters(ctx context.Context) ([]DiskCounter, error)
	NetCounters(ctx context.Context) ([]NetCounter, error)
	FileStores(ctx context.Context) ([]FileStore, error)
}
