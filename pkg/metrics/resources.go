package metrics

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage is a point-in-time view of process and system resources
type ResourceUsage struct {
	CPUPercent            float64
	MemoryRSS             uint64
	MemoryVMS             uint64
	HeapAlloc             uint64
	SystemMemoryPercent   float64
	SystemMemoryAvailable uint64
	GoroutineCount        int
	ThreadCount           int32
}

// ResourceMonitor samples the resources of the current process
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
}

// NewResourceMonitor creates a monitor; CPU usage is measured from here
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return nil, err
	}
	rm := &ResourceMonitor{process: proc, startTime: time.Now()}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm, nil
}

// Usage samples current usage and updates the process memory gauge.
// Fields the platform cannot report are left zero.
func (rm *ResourceMonitor) Usage() ResourceUsage {
	var usage ResourceUsage

	if cpuTime, err := rm.process.Times(); err == nil {
		if elapsed := time.Since(rm.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / elapsed) * 100
		}
	}
	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		usage.MemoryVMS = memInfo.VMS
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	usage.HeapAlloc = memStats.HeapAlloc
	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = rm.process.NumThreads()

	MemoryAllocated.WithLabelValues("process").Set(float64(usage.MemoryRSS))
	MemoryAllocated.WithLabelValues("heap").Set(float64(usage.HeapAlloc))
	return usage
}
