package metrics

import (
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// ProcessSample holds one CPU and memory observation of the supervised app.
type ProcessSample struct {
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	MemoryRSS  uint64    `json:"memory_rss"`
	NumThreads int32     `json:"num_threads"`
	Timestamp  time.Time `json:"timestamp"`
}

// SampleProcess samples CPU/memory of pid via gopsutil and publishes the app
// gauges. Best-effort: a vanished process returns ok=false with zeroed gauges
// left untouched.
func SampleProcess(pid int) (ProcessSample, bool) {
	if pid <= 0 {
		return ProcessSample{}, false
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return ProcessSample{}, false
	}

	sample := ProcessSample{PID: pid, Timestamp: time.Now()}
	if cpu, err := p.CPUPercent(); err == nil {
		sample.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		sample.MemoryRSS = mem.RSS
		sample.MemoryMB = float64(mem.RSS) / 1024 / 1024
	}
	if th, err := p.NumThreads(); err == nil {
		sample.NumThreads = th
	}

	appCPUPercent.Set(sample.CPUPercent)
	appMemoryMB.Set(sample.MemoryMB)
	return sample, true
}
