package metrics

import (
	"math"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
)

// CPUTicks is a cumulative CPU time vector (seconds since boot, all cores).
// Tick composition stays inside this type; callers only keep the previous
// value and pass it back to LoadSince.
type CPUTicks struct {
	User      float64
	Nice      float64
	System    float64
	Idle      float64
	Iowait    float64
	Irq       float64
	Softirq   float64
	Steal     float64
	Guest     float64
	GuestNice float64
}

func ticksFromTimes(t cpu.TimesStat) CPUTicks {
	return CPUTicks{
		User:      t.User,
		Nice:      t.Nice,
		System:    t.System,
		Idle:      t.Idle,
		Iowait:    t.Iowait,
		Irq:       t.Irq,
		Softirq:   t.Softirq,
		Steal:     t.Steal,
		Guest:     t.Guest,
		GuestNice: t.GuestNice,
	}
}

// IsZero reports whether no ticks were ever recorded
func (t CPUTicks) IsZero() bool {
	return t == CPUTicks{}
}

// LoadSince returns the busy fraction in [0,1] accumulated between prev and t
func (t CPUTicks) LoadSince(prev CPUTicks) float64 {
	prevAll, prevBusy := prev.allBusy()
	curAll, curBusy := t.allBusy()

	if curBusy <= prevBusy {
		return 0
	}
	if curAll <= prevAll {
		return 1
	}
	return clampFraction((curBusy - prevBusy) / (curAll - prevAll))
}

// allBusy returns total and busy time. Linux already counts guest time
// inside user and nice.
func (t CPUTicks) allBusy() (float64, float64) {
	total := t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq +
		t.Softirq + t.Steal + t.Guest + t.GuestNice
	if runtime.GOOS == "linux" {
		total -= t.Guest
		total -= t.GuestNice
	}

	busy := total - t.Idle - t.Iowait
	return total, busy
}

func clampFraction(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
