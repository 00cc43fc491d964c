package metrics

import (
	"context"
	"math"
	"time"

	constants "smanager/config"
	"smanager/internal/logger"
)

// minElapsed floors the time between samples so a coarse clock never
// divides by zero.
const minElapsed = 1e-6

// SamplerOption configures a Sampler
type SamplerOption func(*Sampler)

// WithClock overrides the wall clock, used by tests
func WithClock(now func() time.Time) SamplerOption {
	return func(s *Sampler) { s.now = now }
}

// WithReadTimeout bounds the adapter reads of one tick. A read that does
// not finish in time counts as a failed read.
func WithReadTimeout(d time.Duration) SamplerOption {
	return func(s *Sampler) { s.timeout = d }
}

// WithLogger sets where absorbed read failures are reported
func WithLogger(l *logger.Logger) SamplerOption {
	return func(s *Sampler) { s.log = l }
}

// Sampler turns cumulative counters into a Snapshot per tick.
// It is not safe for concurrent use; one sampling loop owns it.
type Sampler struct {
	source  Source
	now     func() time.Time
	timeout time.Duration
	log     *logger.Logger

	prevTicks     CPUTicks
	prevDiskRead  uint64
	prevDiskWrite uint64
	prevNetRecv   uint64
	prevNetSent   uint64
	prevAt        time.Time

	last    Snapshot
	failing map[string]bool
}

// NewSampler creates a sampler reading from source
func NewSampler(source Source, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		source:  source,
		now:     time.Now,
		log:     logger.Default(),
		failing: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.primeCPU()
	return s
}

// primeCPU records the tick baseline so the first Sample reports the
// utilization accumulated since construction. A failed read leaves the
// first Sample at 0.
func (s *Sampler) primeCPU() {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = constants.MAX_SAMPLE_TIMEOUT_MS * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticks, err := s.source.CPUTicks(ctx)
	if err != nil {
		s.log.Debug("Failed to read initial CPU ticks: %v", err)
		return
	}
	s.prevTicks = ticks
}

// SetReadTimeout changes the per-tick read bound. Call it only while no
// loop is sampling.
func (s *Sampler) SetReadTimeout(d time.Duration) {
	s.timeout = d
}

// Sample reads the source once and returns a new Snapshot. Read failures
// never abort the tick: gauges keep their last value, a failed counter
// group reports a zero rate and restarts from a cold baseline.
func (s *Sampler) Sample(ctx context.Context) *Snapshot {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := s.now()
	elapsed := now.Sub(s.prevAt).Seconds()
	if elapsed < minElapsed {
		elapsed = minElapsed
	}

	snap := &Snapshot{Timestamp: now.UnixMilli()}

	s.sampleCPU(ctx, snap)
	s.sampleMemory(ctx, snap)
	s.sampleCapacity(ctx, snap)
	s.sampleDiskIO(ctx, snap, elapsed)
	s.sampleNetIO(ctx, snap, elapsed)

	s.prevAt = now
	s.last = *snap
	return snap
}

func (s *Sampler) sampleCPU(ctx context.Context, snap *Snapshot) {
	ticks, err := s.source.CPUTicks(ctx)
	if s.check("cpu ticks", err) {
		if !s.prevTicks.IsZero() {
			snap.CPUUsage = ticks.LoadSince(s.prevTicks)
		}
		s.prevTicks = ticks
	} else {
		snap.CPUUsage = s.last.CPUUsage
	}

	avg, err := s.source.LoadAverage(ctx)
	if s.check("load average", err) {
		for i, v := range avg {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				v = 0
			}
			snap.SystemLoadAverage[i] = v
		}
	} else {
		snap.SystemLoadAverage = s.last.SystemLoadAverage
	}
}

func (s *Sampler) sampleMemory(ctx context.Context, snap *Snapshot) {
	m, err := s.source.Memory(ctx)
	if !s.check("memory", err) {
		snap.MemoryTotalBytes = s.last.MemoryTotalBytes
		snap.MemoryUsedBytes = s.last.MemoryUsedBytes
		snap.MemoryFreeBytes = s.last.MemoryFreeBytes
		return
	}

	free := m.Available
	if free > m.Total {
		free = m.Total
	}
	snap.MemoryTotalBytes = m.Total
	snap.MemoryFreeBytes = free
	snap.MemoryUsedBytes = m.Total - free
}

func (s *Sampler) sampleCapacity(ctx context.Context, snap *Snapshot) {
	stores, err := s.source.FileStores(ctx)
	if !s.check("disk capacity", err) {
		snap.DiskTotalBytes = s.last.DiskTotalBytes
		snap.DiskFreeBytes = s.last.DiskFreeBytes
		return
	}

	for _, fs := range stores {
		snap.DiskTotalBytes += fs.Total
		snap.DiskFreeBytes += fs.Free
	}
}

func (s *Sampler) sampleDiskIO(ctx context.Context, snap *Snapshot, elapsed float64) {
	counters, err := s.source.DiskCounters(ctx)
	if !s.check("disk io", err) {
		s.prevDiskRead, s.prevDiskWrite = 0, 0
		return
	}

	var read, write uint64
	for _, c := range counters {
		read += c.ReadBytes
		write += c.WriteBytes
	}

	snap.DiskReadBytesPerSec = rate(read, s.prevDiskRead, elapsed)
	snap.DiskWriteBytesPerSec = rate(write, s.prevDiskWrite, elapsed)
	s.prevDiskRead, s.prevDiskWrite = read, write
}

func (s *Sampler) sampleNetIO(ctx context.Context, snap *Snapshot, elapsed float64) {
	counters, err := s.source.NetCounters(ctx)
	if !s.check("network io", err) {
		s.prevNetRecv, s.prevNetSent = 0, 0
		return
	}

	var recv, sent uint64
	for _, c := range counters {
		recv += c.BytesRecv
		sent += c.BytesSent
	}

	snap.NetDownBytesPerSec = rate(recv, s.prevNetRecv, elapsed)
	snap.NetUpBytesPerSec = rate(sent, s.prevNetSent, elapsed)
	s.prevNetRecv, s.prevNetSent = recv, sent
}

// check reports whether err is nil. Failures are logged once when a metric
// starts failing and again when it recovers.
func (s *Sampler) check(metric string, err error) bool {
	if err != nil {
		if !s.failing[metric] {
			s.log.Warning("Failed to read %s, keeping last value: %v", metric, err)
			s.failing[metric] = true
		} else {
			s.log.Debug("Still failing to read %s: %v", metric, err)
		}
		return false
	}

	if s.failing[metric] {
		s.log.Info("Reading %s recovered", metric)
		delete(s.failing, metric)
	}
	return true
}

// rate is the per-second derivative of a cumulative counter. A zero
// baseline or a counter that went backwards reports 0.
func rate(cur, prev uint64, elapsed float64) float64 {
	if prev == 0 || cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsed
}
